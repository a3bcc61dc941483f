package jd

import "strings"

// skillNormalizations maps common skill spelling variants to one
// canonical name so the keyword inventory does not split frequency
// across aliases.
var skillNormalizations = map[string]string{
	"golang":     "go",
	"go lang":    "go",
	"js":         "javascript",
	"ts":         "typescript",
	"k8s":        "kubernetes",
	"react.js":   "react",
	"reactjs":    "react",
	"vue.js":     "vue",
	"vuejs":      "vue",
	"node":       "node.js",
	"nodejs":     "node.js",
	"postgres":   "postgresql",
	"psql":       "postgresql",
	"ci/cd":      "ci/cd",
	"ci cd":      "ci/cd",
	"ml":         "machine learning",
	"aws cloud":  "aws",
	"ms azure":   "azure",
	"tf":         "terraform",
	"containers": "docker",
}

// skillLexicon is the phrase vocabulary scanned for when building the
// keyword inventory. Multi-word phrases are listed longest-first at scan
// time so "distributed systems" is not double counted as "systems".
var skillLexicon = []string{
	"distributed systems",
	"machine learning",
	"deep learning",
	"data engineering",
	"systems programming",
	"site reliability",
	"large language model",
	"natural language processing",
	"computer vision",
	"event-driven architecture",
	"microservices",
	"observability",
	"infrastructure",
	"reliability",
	"performance",
	"scalability",
	"security",
	"ci/cd",
	"kubernetes",
	"k8s",
	"docker",
	"terraform",
	"ansible",
	"aws",
	"gcp",
	"azure",
	"linux",
	"go",
	"golang",
	"rust",
	"python",
	"java",
	"scala",
	"kotlin",
	"c++",
	"javascript",
	"typescript",
	"react",
	"vue",
	"node.js",
	"sql",
	"postgresql",
	"postgres",
	"mysql",
	"mongodb",
	"redis",
	"kafka",
	"rabbitmq",
	"grpc",
	"graphql",
	"rest",
	"spark",
	"airflow",
	"pytorch",
	"tensorflow",
	"elasticsearch",
	"prometheus",
	"grafana",
	"spring boot",
	"django",
	"flask",
}

// NormalizeSkillName lowercases, trims, and collapses known aliases to
// their canonical form.
func NormalizeSkillName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := skillNormalizations[normalized]; ok {
		return canonical
	}
	return normalized
}
