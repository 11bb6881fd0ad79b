package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/answer-engine-bot/internal/models"
)

func execute(t *testing.T, stdin string, args ...string) (*models.AnalysisResult, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	return &result, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestAnalyze_AnswerFile(t *testing.T) {
	answer := writeFile(t, "answer.txt", "1. Acme Corp is the best tool. 2. Beta Inc is good too.")

	result, err := execute(t, "", answer, "--brand", "Acme Corp", "--competitors", "Beta Inc,Gamma", "--platform", "chatgpt")
	require.NoError(t, err)

	assert.Equal(t, "acme-corp", result.BrandID)
	assert.Equal(t, "chatgpt", result.Platform)
	assert.True(t, result.BrandMentioned)
	assert.Equal(t, 1, result.MentionCount)
	require.NotNil(t, result.Position)
	assert.Equal(t, 1, *result.Position)
	assert.Contains(t, result.CompetitorMentions, "Beta Inc")
}

func TestAnalyze_PayloadFromStdin(t *testing.T) {
	payload := writeFile(t, "payload.json", `{"search_results":[{"url":"https://www.capterra.com/p/123/review","title":"Reviews"}]}`)

	result, err := execute(t, "Acme Corp is a great product [1].", "-", "--brand", "Acme Corp", "--platform", "perplexity", "--payload", payload, "--compact")
	require.NoError(t, err)

	require.Len(t, result.Citations, 1)
	assert.Equal(t, "www.capterra.com", result.Citations[0].Domain)
	assert.Equal(t, 1, result.BrandAttributedCitations)
}

func TestAnalyze_Errors(t *testing.T) {
	answer := writeFile(t, "answer.txt", "Acme Corp is fine.")
	badPayload := writeFile(t, "payload.json", "{not json")

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{name: "missing brand", args: []string{answer}, want: "brand"},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "nope.txt"), "--brand", "Acme"}, want: "failed to read answer"},
		{name: "empty answer", stdin: "  \n", args: []string{"-", "--brand", "Acme"}, want: "is empty"},
		{name: "bad payload", args: []string{answer, "--brand", "Acme", "--payload", badPayload}, want: "failed to parse payload"},
		{name: "no arguments", args: []string{"--brand", "Acme"}, want: "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
