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

package registry_test

import (
	"reflect"
	"testing"

	"github.com/alan-mat/dip/internal/registry"
)

type factory func() string

func TestRegistryRegister(t *testing.T) {
	r := registry.New[string, factory]()

	r.Register("semantic", func() string { return "semantic" })
	r.Register("fixed", func() string { return "fixed" })

	for _, k := range []string{"semantic", "fixed"} {
		if !r.Exists(k) {
			t.Errorf("key '%s' not found in registry", k)
		}
	}
	if r.Exists("sliding") {
		t.Error("unregistered key exists")
	}
}

func TestRegistryGet(t *testing.T) {
	r := registry.New[string, factory]()
	r.Register("semantic", func() string { return "semantic" })

	f, ok := r.Get("semantic")
	if !ok {
		t.Fatal("registered entry not found")
	}
	if got := f(); got != "semantic" {
		t.Errorf("got '%s', expected 'semantic'", got)
	}

	if _, ok := r.Get("some-key"); ok {
		t.Error("got unregistered key")
	}
}

func TestRegistryRegisterMany(t *testing.T) {
	r := registry.New[string, int]()
	entries := []registry.Entry[string, int]{
		{Key: "hr", Value: 768},
		{Key: "legal", Value: 1024},
		{Key: "sales", Value: 1536},
	}
	r.RegisterMany(entries...)

	for _, e := range entries {
		v, ok := r.Get(e.Key)
		if !ok {
			t.Errorf("key '%s' not found in registry", e.Key)
		}
		if v != e.Value {
			t.Errorf("got %d, expected %d", v, e.Value)
		}
	}
}

func TestRegistryRegisterOverwrite(t *testing.T) {
	r := registry.New[string, string]()
	r.Register("provider", "gemini")
	r.Register("provider", "cohere")

	val, ok := r.Get("provider")
	if !ok {
		t.Fatal("key doesn't exist")
	}
	if val != "cohere" {
		t.Errorf("got '%s', expected '%s'", val, "cohere")
	}
}

func TestRegistryDelete(t *testing.T) {
	r := registry.New[string, int]()
	r.RegisterMany(
		registry.Entry[string, int]{Key: "one", Value: 1},
		registry.Entry[string, int]{Key: "two", Value: 2},
		registry.Entry[string, int]{Key: "three", Value: 3},
	)

	r.Delete("one", "two")
	for _, k := range []string{"one", "two"} {
		if r.Exists(k) {
			t.Errorf("found deleted entry with key '%s'", k)
		}
	}
	if !r.Exists("three") {
		t.Error("undeleted key 'three' not found")
	}

	// deleting an unknown key is a no-op
	r.Delete("four")
	if !r.Exists("three") {
		t.Error("unrelated key removed")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("sliding_window", 3)
	r.Register("fixed_size", 1)
	r.Register("semantic", 2)

	expected := []string{"fixed_size", "semantic", "sliding_window"}
	if got := r.List(); !reflect.DeepEqual(got, expected) {
		t.Errorf("got keys %v, expected %v", got, expected)
	}

	r.Delete(expected...)
	if got := r.List(); len(got) != 0 {
		t.Errorf("got %d keys, expected 0", len(got))
	}
}

func TestRegistryIntKeys(t *testing.T) {
	r := registry.New[int, string]()
	r.Register(2, "two")
	r.Register(1, "one")

	expected := []int{1, 2}
	if got := r.List(); !reflect.DeepEqual(got, expected) {
		t.Errorf("got keys %v, expected %v", got, expected)
	}
}
