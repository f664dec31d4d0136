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

// Package chunk splits extracted document text into embeddable chunks.
// Strategies are looked up by name so callers can select one per
// request.
package chunk

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alan-mat/dip/internal/registry"
)

// Splitter turns a document text into an ordered list of chunks.
type Splitter interface {
	Name() string
	Split(text string) ([]string, error)
}

// Factory builds a Splitter from request supplied options.
type Factory func(opts Options) (Splitter, error)

// Options carries strategy parameters as decoded from request JSON.
type Options map[string]any

var strategies = registry.New[string, Factory]()

// Strategies returns the names of all registered strategies in sorted
// order.
func Strategies() []string {
	return strategies.List()
}

// NewSplitter resolves a strategy by name and configures it.
func NewSplitter(strategy string, opts Options) (Splitter, error) {
	factory, ok := strategies.Get(strategy)
	if !ok {
		return nil, UnknownStrategyError{Name: strategy, Available: strategies.List()}
	}
	return factory(opts)
}

// Split chunks text with the named strategy.
func Split(text, strategy string, opts Options) ([]string, error) {
	splitter, err := NewSplitter(strategy, opts)
	if err != nil {
		return nil, err
	}
	return splitter.Split(text)
}

// UnknownStrategyError reports a strategy name with no registered
// factory.
type UnknownStrategyError struct {
	Name      string
	Available []string
}

func (e UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown chunking strategy '%s', available strategies: %s",
		e.Name, strings.Join(e.Available, ", "))
}

// InvalidOptionsError reports strategy options that cannot produce a
// working splitter.
type InvalidOptionsError struct {
	Strategy string
	Reason   string
}

func (e InvalidOptionsError) Error() string {
	return fmt.Sprintf("invalid options for strategy '%s': %s", e.Strategy, e.Reason)
}

// intOption reads an integer option, accepting the numeric types a
// JSON decoder may produce. Missing keys and foreign types fall back
// to the default.
func intOption(opts Options, name string, defaultValue int) int {
	v, ok := opts[name]
	if !ok {
		return defaultValue
	}

	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return defaultValue
}

// stringListOption reads a string list option, accepting both []string
// and the []any form produced by a JSON decoder.
func stringListOption(opts Options, name string, defaultValue []string) []string {
	v, ok := opts[name]
	if !ok {
		return defaultValue
	}

	switch l := v.(type) {
	case []string:
		return l
	case []any:
		items := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return defaultValue
			}
			items = append(items, s)
		}
		return items
	}
	return defaultValue
}
