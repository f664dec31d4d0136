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

	"github.com/goccy/go-yaml"

	"github.com/alan-mat/dip/internal/config"
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

type workerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type serverConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type storageConfig struct {
	Bucket string `yaml:"bucket"`
	Table  string `yaml:"table"`
}

type embeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type chunkingConfig struct {
	Strategy string `yaml:"strategy"`
	Size     int    `yaml:"size"`
	Overlap  int    `yaml:"overlap"`
}

type fileConfig struct {
	Server serverConfig `yaml:"server"`
	Worker workerConfig `yaml:"worker"`

	Transport   redisConfig  `yaml:"transport"`
	VectorStore qdrantConfig `yaml:"vector_store"`

	Storage   storageConfig   `yaml:"storage"`
	Embedding embeddingConfig `yaml:"embedding"`
	Chunking  chunkingConfig  `yaml:"chunking"`

	SectorsFile string `yaml:"sectors"`
}

// resolveConfig reads settings from the environment, then lets an
// optional yaml file override them field by field.
func resolveConfig(path string) (*config.Config, error) {
	conf := config.FromEnv()
	if path == "" {
		return conf, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(file, &fc); err != nil {
		return nil, err
	}

	if fc.Server.ListenAddr != "" {
		conf.ListenAddr = fc.Server.ListenAddr
	}
	if fc.Worker.Concurrency > 0 {
		conf.WorkerConcurrency = fc.Worker.Concurrency
	}

	if fc.Transport.Addr != "" {
		conf.RedisAddr = fc.Transport.Addr
	}
	if fc.Transport.Username != "" {
		conf.RedisUsername = fc.Transport.Username
	}
	if fc.Transport.Password != "" {
		conf.RedisPassword = fc.Transport.Password
	}
	if fc.Transport.DB != 0 {
		conf.RedisDB = fc.Transport.DB
	}

	if fc.VectorStore.Host != "" {
		conf.QdrantHost = fc.VectorStore.Host
	}
	if fc.VectorStore.Port != 0 {
		conf.QdrantPort = fc.VectorStore.Port
	}

	if fc.Storage.Bucket != "" {
		conf.Bucket = fc.Storage.Bucket
	}
	if fc.Storage.Table != "" {
		conf.Table = fc.Storage.Table
	}

	if fc.Embedding.Provider != "" {
		conf.EmbedProvider = fc.Embedding.Provider
	}
	if fc.Embedding.Model != "" {
		conf.EmbedModel = fc.Embedding.Model
	}
	if fc.Embedding.Dimensions > 0 {
		conf.EmbedDimensions = fc.Embedding.Dimensions
	}

	if fc.Chunking.Strategy != "" {
		conf.DefaultStrategy = fc.Chunking.Strategy
	}
	if fc.Chunking.Size > 0 {
		conf.ChunkSize = fc.Chunking.Size
	}
	if fc.Chunking.Overlap > 0 {
		conf.ChunkOverlap = fc.Chunking.Overlap
	}

	if fc.SectorsFile != "" {
		conf.SectorsFile = fc.SectorsFile
	}

	return conf, nil
}
