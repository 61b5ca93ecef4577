// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package main

import (
	"os"

	"github.com/alan-mat/tome/worker"
	"github.com/goccy/go-yaml"
)

type redisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type qdrantConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type modelConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Convention string `yaml:"convention"`
}

type providersConfig struct {
	Embedder  string `yaml:"embedder"`
	Generator string `yaml:"generator"`
	Reranker  string `yaml:"reranker"`
}

type storeConfig struct {
	Index          string `yaml:"index"`
	Collection     string `yaml:"collection"`
	ReservedMargin int    `yaml:"reserved_margin"`
	TopK           int    `yaml:"top_k"`
	SummaryTokens  int    `yaml:"summary_tokens"`
}

type workerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type config struct {
	Model     modelConfig     `yaml:"model"`
	Providers providersConfig `yaml:"providers"`
	Store     storeConfig     `yaml:"store"`
	Worker    workerConfig    `yaml:"worker"`

	Transport   redisConfig  `yaml:"transport"`
	VectorStore qdrantConfig `yaml:"vector_store"`
}

func defaultFileConfig() *config {
	wc := worker.DefaultConfig()
	return &config{
		Model: modelConfig{
			Endpoint:   wc.ModelEndpoint,
			Convention: wc.Convention,
		},
		Providers: providersConfig{
			Embedder:  wc.Embedder,
			Generator: wc.Generator,
		},
		Store: storeConfig{
			Index:          wc.Index,
			Collection:     wc.Collection,
			ReservedMargin: wc.ReservedMargin,
			TopK:           wc.TopK,
			SummaryTokens:  wc.SummaryTokens,
		},
		Worker: workerConfig{
			Concurrency: wc.Concurrency,
		},
		Transport: redisConfig{
			Addr: wc.RedisAddr,
		},
		VectorStore: qdrantConfig{
			Host: wc.QdrantHost,
			Port: wc.QdrantPort,
		},
	}
}

func ReadConfig(path string) (*config, error) {
	conf := defaultFileConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return conf, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(file, conf); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *config) workerConfig() worker.Config {
	wc := worker.DefaultConfig()

	wc.RedisAddr = c.Transport.Addr
	wc.RedisUsername = c.Transport.Username
	wc.RedisPassword = c.Transport.Password
	wc.RedisDB = c.Transport.DB

	if c.Worker.Concurrency > 0 {
		wc.Concurrency = c.Worker.Concurrency
	}

	wc.ModelEndpoint = c.Model.Endpoint
	wc.Convention = c.Model.Convention

	wc.Embedder = c.Providers.Embedder
	wc.Generator = c.Providers.Generator
	wc.Reranker = c.Providers.Reranker

	wc.Index = c.Store.Index
	wc.Collection = c.Store.Collection
	wc.QdrantHost = c.VectorStore.Host
	wc.QdrantPort = c.VectorStore.Port

	if c.Store.ReservedMargin > 0 {
		wc.ReservedMargin = c.Store.ReservedMargin
	}
	if c.Store.TopK > 0 {
		wc.TopK = c.Store.TopK
	}
	if c.Store.SummaryTokens > 0 {
		wc.SummaryTokens = c.Store.SummaryTokens
	}

	return wc
}
