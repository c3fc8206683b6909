package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcgraph/arcgraph/internal/testutil"
	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

func findElement(t *testing.T, result FileResult, kind models.ElementKind, name string) models.Element {
	t.Helper()
	for _, el := range result.Elements {
		if el.Kind == kind && el.Name == name {
			return el
		}
	}
	t.Fatalf("element %s %q not found in %v", kind, name, elementNames(result))
	return models.Element{}
}

func elementNames(result FileResult) []string {
	names := make([]string, 0, len(result.Elements))
	for _, el := range result.Elements {
		names = append(names, string(el.Kind)+":"+el.Name)
	}
	return names
}

func refNames(el models.Element, kind models.RefKind) []string {
	var names []string
	for _, ref := range el.References {
		if ref.Kind == kind {
			names = append(names, ref.Name)
		}
	}
	return names
}

func TestExtractGo(t *testing.T) {
	ex := New()
	defer ex.Close()

	result := ex.ExtractFile("store/store.go", []byte(testutil.GoSample))
	require.Empty(t, result.Diagnostics)
	assert.Equal(t, parser.LangGo, result.Language)
	assert.NotEmpty(t, result.Digest)

	pkg := findElement(t, result, models.KindPackage, "store")
	assert.Contains(t, refNames(pkg, models.RefImport), "fmt")

	iface := findElement(t, result, models.KindInterface, "Store")
	assert.Equal(t, "public", iface.Visibility)
	assert.Equal(t, pkg.ID, iface.ParentID)
	assert.Equal(t, "store", iface.Module)

	st := findElement(t, result, models.KindStruct, "MemStore")
	assert.Equal(t, "public", st.Visibility)

	ctor := findElement(t, result, models.KindFunction, "NewMemStore")
	assert.Equal(t, pkg.ID, ctor.ParentID)

	get := findElement(t, result, models.KindMethod, "Get")
	assert.Equal(t, "MemStore", get.Metadata["receiver"])
	assert.Contains(t, refNames(get, models.RefCall), "fmt.Errorf")
	assert.Greater(t, get.EndLine, get.StartLine)
}

func TestExtractGoUnexportedVisibility(t *testing.T) {
	ex := New()
	defer ex.Close()

	src := "package p\n\ntype inner struct{}\n\nfunc helper() {}\n\nvar count int\n"
	result := ex.ExtractFile("p/p.go", []byte(src))
	require.Empty(t, result.Diagnostics)

	assert.Equal(t, "private", findElement(t, result, models.KindStruct, "inner").Visibility)
	assert.Equal(t, "private", findElement(t, result, models.KindFunction, "helper").Visibility)
	assert.Equal(t, "private", findElement(t, result, models.KindVariable, "count").Visibility)
}

func TestExtractPython(t *testing.T) {
	ex := New()
	defer ex.Close()

	result := ex.ExtractFile("app/tasks.py", []byte(testutil.PySample))
	require.Empty(t, result.Diagnostics)
	assert.Equal(t, parser.LangPython, result.Language)

	mod := findElement(t, result, models.KindModule, "tasks")
	imports := refNames(mod, models.RefImport)
	assert.Contains(t, imports, "os")
	assert.Contains(t, imports, "collections")

	base := findElement(t, result, models.KindClass, "Base")
	assert.Empty(t, refNames(base, models.RefBase))

	child := findElement(t, result, models.KindClass, "Child")
	assert.Equal(t, []string{"Base"}, refNames(child, models.RefBase))

	helper := findElement(t, result, models.KindFunction, "helper")
	assert.Contains(t, refNames(helper, models.RefCall), "os.getcwd")

	// Both classes define ping; each is a method parented to its class.
	var pings []models.Element
	for _, el := range result.Elements {
		if el.Kind == models.KindMethod && el.Name == "ping" {
			pings = append(pings, el)
		}
	}
	require.Len(t, pings, 2)
	parents := []string{pings[0].ParentID, pings[1].ParentID}
	assert.Contains(t, parents, base.ID)
	assert.Contains(t, parents, child.ID)
}

func TestExtractTypeScript(t *testing.T) {
	ex := New()
	defer ex.Close()

	result := ex.ExtractFile("src/worker.ts", []byte(testutil.JSSample))
	require.Empty(t, result.Diagnostics)
	assert.Equal(t, parser.LangTypeScript, result.Language)

	mod := findElement(t, result, models.KindModule, "worker")
	assert.Contains(t, refNames(mod, models.RefImport), "events")

	worker := findElement(t, result, models.KindClass, "Worker")
	assert.Equal(t, []string{"EventEmitter"}, refNames(worker, models.RefBase))

	run := findElement(t, result, models.KindMethod, "run")
	assert.Equal(t, worker.ID, run.ParentID)
	assert.Contains(t, refNames(run, models.RefCall), "schedule")

	findElement(t, result, models.KindFunction, "schedule")
}

func TestExtractJavaScriptArrowFunction(t *testing.T) {
	ex := New()
	defer ex.Close()

	src := `const handler = (req) => { dispatch(req); };
const limit = 10;
`
	result := ex.ExtractFile("src/handler.js", []byte(src))
	require.Empty(t, result.Diagnostics)

	handler := findElement(t, result, models.KindFunction, "handler")
	assert.Contains(t, refNames(handler, models.RefCall), "dispatch")

	findElement(t, result, models.KindVariable, "limit")
}

func TestExtractRuby(t *testing.T) {
	ex := New()
	defer ex.Close()

	src := `require "json"

module Billing
  class Invoice < Document
    include Comparable

    def total
      compute
    end
  end
end
`
	result := ex.ExtractFile("lib/invoice.rb", []byte(src))
	require.Empty(t, result.Diagnostics)
	assert.Equal(t, parser.LangRuby, result.Language)

	mod := findElement(t, result, models.KindModule, "invoice")
	assert.Contains(t, refNames(mod, models.RefImport), "json")

	findElement(t, result, models.KindNamespace, "Billing")

	invoice := findElement(t, result, models.KindClass, "Invoice")
	assert.Equal(t, []string{"Document"}, refNames(invoice, models.RefBase))
	assert.Contains(t, refNames(invoice, models.RefInterface), "Comparable")

	total := findElement(t, result, models.KindMethod, "total")
	assert.Equal(t, invoice.ID, total.ParentID)
	assert.Contains(t, refNames(total, models.RefCall), "compute")
}

func TestExtractJava(t *testing.T) {
	ex := New()
	defer ex.Close()

	src := `package com.acme.orders;

import java.util.List;

public class OrderService implements Runnable {
    private List<String> items;

    public void run() {
        process();
    }

    void process() {
    }
}
`
	result := ex.ExtractFile("src/OrderService.java", []byte(src))
	require.Empty(t, result.Diagnostics)
	assert.Equal(t, parser.LangJava, result.Language)

	pkg := findElement(t, result, models.KindPackage, "com.acme.orders")
	assert.Contains(t, refNames(pkg, models.RefImport), "java.util.List")

	svc := findElement(t, result, models.KindClass, "OrderService")
	assert.Equal(t, "public", svc.Visibility)
	assert.Contains(t, refNames(svc, models.RefInterface), "Runnable")
	assert.Contains(t, refNames(svc, models.RefUse), "List")

	items := findElement(t, result, models.KindVariable, "items")
	assert.Equal(t, svc.ID, items.ParentID)

	run := findElement(t, result, models.KindMethod, "run")
	assert.Contains(t, refNames(run, models.RefCall), "process")
}

func TestExtractRust(t *testing.T) {
	ex := New()
	defer ex.Close()

	src := `use std::fmt;

pub struct Engine {
    rpm: u32,
}

impl Engine {
    pub fn start(&self) {
        ignite();
    }
}

fn ignite() {}
`
	result := ex.ExtractFile("src/engine.rs", []byte(src))
	require.Empty(t, result.Diagnostics)
	assert.Equal(t, parser.LangRust, result.Language)

	mod := findElement(t, result, models.KindModule, "engine")
	assert.Contains(t, refNames(mod, models.RefImport), "std::fmt")

	engine := findElement(t, result, models.KindStruct, "Engine")
	assert.Equal(t, "public", engine.Visibility)

	start := findElement(t, result, models.KindMethod, "start")
	assert.Equal(t, engine.ID, start.ParentID)
	assert.Equal(t, "Engine", start.Metadata["receiver"])
	assert.Contains(t, refNames(start, models.RefCall), "ignite")

	assert.Equal(t, "private", findElement(t, result, models.KindFunction, "ignite").Visibility)
}

func TestExtractUnsupportedLanguage(t *testing.T) {
	ex := New()
	defer ex.Close()

	result := ex.ExtractFile("notes.txt", []byte("plain text"))
	assert.Empty(t, result.Elements)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, models.DiagUnsupported, result.Diagnostics[0].Kind)
}

func TestExtractDeterministicIDs(t *testing.T) {
	ex1 := New()
	defer ex1.Close()
	ex2 := New()
	defer ex2.Close()

	a := ex1.ExtractFile("store/store.go", []byte(testutil.GoSample))
	b := ex2.ExtractFile("store/store.go", []byte(testutil.GoSample))

	require.Equal(t, len(a.Elements), len(b.Elements))
	for i := range a.Elements {
		assert.Equal(t, a.Elements[i].ID, b.Elements[i].ID)
	}
	assert.Equal(t, a.Digest, b.Digest)
}

func TestDigest(t *testing.T) {
	d1 := Digest([]byte("package main"))
	d2 := Digest([]byte("package main"))
	d3 := Digest([]byte("package other"))

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	assert.Len(t, d1, 64)
}

func TestElementID(t *testing.T) {
	id1 := ElementID("a/b.go", models.KindFunction, "b.Run", 3)
	id2 := ElementID("a/b.go", models.KindFunction, "b.Run", 3)
	id3 := ElementID("a/b.go", models.KindFunction, "b.Run", 4)

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
}

func TestExternalID(t *testing.T) {
	assert.Equal(t, ExternalID("fmt"), ExternalID("fmt"))
	assert.NotEqual(t, ExternalID("fmt"), ExternalID("os"))
}
