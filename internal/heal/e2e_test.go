/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package heal

import (
	"context"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubeheal/healer/internal/structurer"
	"github.com/kubeheal/healer/pkg/model"
)

func hasSeverity(findings []model.AnalysisResult, sev model.Severity) bool {
	for _, f := range findings {
		if f.Severity == sev {
			return true
		}
	}
	return false
}

var _ = Describe("fused keyword and missing colon", func() {
	It("splits the fused kind keyword, appends the missing spec colon, and extracts Service/s", func() {
		raw := "kindService\nmetadata:\n  name: s\nspec\n  ports:\n    - port: 80\n"
		res := Heal(raw, Options{FilePath: "fused.yaml"})

		Expect(res.HealedText).To(ContainSubstring("kind: Service"))
		Expect(res.HealedText).To(ContainSubstring("spec:"))
		Expect(res.Identities).To(HaveLen(1))
		Expect(res.Identities[0].Kind).To(Equal("Service"))
		Expect(res.Identities[0].Name).To(Equal("s"))

		for _, f := range res.Findings {
			Expect(f.Severity).NotTo(Equal(model.SeverityError),
				"expected no error-severity findings beyond a possibly-missing selector, got %+v", f)
		}
	})
})

var _ = Describe("ghost service with typo", func() {
	It("flags the Service and suggests the Deployment's real label", func() {
		svc := `apiVersion: v1
kind: Service
metadata:
  name: web-svc
  namespace: default
spec:
  selector:
    app: frontned
  ports:
  - port: 80
    targetPort: 8080
`
		deploy := `apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
  namespace: default
spec:
  selector:
    matchLabels:
      app: frontend
  template:
    metadata:
      labels:
        app: frontend
    spec:
      containers:
      - name: app
        image: app:1.0.0
        ports:
        - containerPort: 8080
`
		results := HealBatch([]FileInput{
			{Path: "svc.yaml", RawText: svc},
			{Path: "deploy.yaml", RawText: deploy},
		}, Options{})
		Expect(results).To(HaveLen(2))

		var ghost *model.AnalysisResult
		for _, r := range results {
			for i := range r.Findings {
				if r.Findings[i].RuleID == "graph/ghost-service" {
					ghost = &r.Findings[i]
				}
			}
		}
		Expect(ghost).NotTo(BeNil(), "expected a ghost-service finding across the batch")
		Expect(ghost.Severity).To(Equal(model.SeverityWarning))
		Expect(ghost.ResourceName).To(Equal("web-svc"))
		Expect(ghost.Suggestion).To(ContainSubstring("frontend"))
	})
})

var _ = Describe("Norway problem", func() {
	It("quotes the bare NO scalar and is a fixpoint on a second run", func() {
		raw := `apiVersion: v1
kind: ConfigMap
metadata:
  name: cfg
data:
  code: NO
`
		first := Heal(raw, Options{FilePath: "cfg.yaml"})
		Expect(first.HealedText).To(ContainSubstring(`code: "NO"`))

		second := Heal(first.HealedText, Options{FilePath: "cfg.yaml"})
		Expect(second.HealedText).To(Equal(first.HealedText), "expected a second run to be a fixpoint")

		firstDocs, firstStats := lexAndBuild(first.HealedText)
		secondDocs, _ := lexAndBuild(second.HealedText)
		Expect(firstStats.BooleanProtections).To(Equal(0), "clean, already-quoted input should need no further boolean protection")
		diff := cmp.Diff(canonicalizeAll(firstDocs), canonicalizeAll(secondDocs))
		Expect(diff).To(BeEmpty(), "document trees should be identical on a second run")
	})
})

var _ = Describe("broken volume", func() {
	It("emits an error finding when a Deployment references a PVC absent from the namespace", func() {
		raw := `apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
  namespace: default
spec:
  selector:
    matchLabels:
      app: web
  template:
    metadata:
      labels:
        app: web
    spec:
      containers:
      - name: app
        image: app:1.0
        volumeMounts:
        - name: data
          mountPath: /data
      volumes:
      - name: data
        persistentVolumeClaim:
          claimName: data
`
		res := Heal(raw, Options{FilePath: "deploy.yaml"})

		var broken *model.AnalysisResult
		for i := range res.Findings {
			if res.Findings[i].RuleID == "graph/broken-volume" {
				broken = &res.Findings[i]
			}
		}
		Expect(broken).NotTo(BeNil(), "expected a broken-volume finding; no PersistentVolumeClaim named data exists")
		Expect(broken.Severity).To(Equal(model.SeverityError))

		fileFailed := hasSeverity(res.Findings, model.SeverityError)
		Expect(fileFailed).To(BeTrue(), "a deployment referencing a missing PVC should fail the file")
	})
})

// lexAndBuild runs the Lexer and Structurer only, for tests that need the
// reconstructed document tree rather than the serialized text.
func lexAndBuild(raw string) ([]*model.Value, model.LexerStats) {
	shards, stats, err := runLexer(raw, nil, context.Background())
	Expect(err).NotTo(HaveOccurred())
	groups := splitOnBoundaries(shards)
	docs := make([]*model.Value, 0, len(groups))
	for _, g := range groups {
		docs = append(docs, structurer.Build(g.shards).Doc)
	}
	return docs, stats
}

func canonicalizeAll(docs []*model.Value) []interface{} {
	out := make([]interface{}, len(docs))
	for i, d := range docs {
		out[i] = canonicalize(d)
	}
	return out
}
