// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package toon adapts the external TOON CLI as an encode/decode codec.
// The CLI is spoken to over stdin/stdout with a hard timeout, every
// encode is round-trip verified, and results are cached by the canonical
// hash of the input payload so identical targets never shell out twice.
package toon

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrCodec wraps every failure coming out of the external CLI.
var ErrCodec = errors.New("toon codec")

// Codec encodes JSON-shaped payloads to TOON text and back.
type Codec interface {
	Encode(ctx context.Context, payload map[string]any) (string, error)
	Decode(ctx context.Context, toonText string) (any, error)
}

// CLICodec shells out to the TOON command line tool.
type CLICodec struct {
	argv    []string
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]string
}

// NewCLICodec builds a codec around the given argv prefix. Encode runs
// argv + "--encode", decode runs argv alone, both with the document on
// stdin.
func NewCLICodec(argv []string, timeout time.Duration) (*CLICodec, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrCodec)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CLICodec{
		argv:    append([]string{}, argv...),
		timeout: timeout,
		cache:   map[string]string{},
	}, nil
}

// Encode turns payload into normalized TOON text. The result is decoded
// again and structurally compared against the input; a mismatch fails the
// encode rather than issuing a corrupt target.
func (c *CLICodec) Encode(ctx context.Context, payload map[string]any) (string, error) {
	doc, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal payload: %v", ErrCodec, err)
	}

	key := cacheKey(doc)
	c.mu.Lock()
	cached, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	args := append(append([]string{}, c.argv[1:]...), "--encode")
	stdout, err := c.run(ctx, args, doc)
	if err != nil {
		return "", err
	}
	toonText, err := Normalize(string(stdout))
	if err != nil {
		return "", err
	}

	decoded, err := c.Decode(ctx, toonText)
	if err != nil {
		return "", fmt.Errorf("%w: round-trip decode: %v", ErrCodec, err)
	}
	var want any
	if err := json.Unmarshal(doc, &want); err != nil {
		return "", fmt.Errorf("%w: reparse payload: %v", ErrCodec, err)
	}
	if !StructurallyEqual(want, decoded) {
		return "", fmt.Errorf("%w: round-trip mismatch", ErrCodec)
	}

	c.mu.Lock()
	c.cache[key] = toonText
	c.mu.Unlock()
	return toonText, nil
}

// Decode parses TOON text back into its JSON value.
func (c *CLICodec) Decode(ctx context.Context, toonText string) (any, error) {
	stdout, err := c.run(ctx, append([]string{}, c.argv[1:]...), []byte(toonText))
	if err != nil {
		return nil, err
	}
	raw := bytes.TrimSpace(stdout)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty decode output", ErrCodec)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: unreadable decode output: %v", ErrCodec, err)
	}
	return decoded, nil
}

func (c *CLICodec) run(ctx context.Context, args []string, stdin []byte) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.argv[0], args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %s timed out after %s", ErrCodec, c.argv[0], c.timeout)
		}
		detail := firstLine(stderr.String())
		if detail == "" {
			detail = firstLine(stdout.String())
		}
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrCodec, c.argv[0], detail)
	}
	if !utf8.Valid(stdout.Bytes()) {
		return nil, fmt.Errorf("%w: %s produced non-UTF-8 output", ErrCodec, c.argv[0])
	}
	return stdout.Bytes(), nil
}

// Normalize canonicalizes TOON text: CRLF to LF, trailing whitespace
// stripped per line, outer blank lines dropped. JSON-looking text is
// rejected outright.
func Normalize(value string) (string, error) {
	raw := strings.ReplaceAll(value, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = strings.Trim(raw, "\n")
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text := strings.Join(lines, "\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty TOON text", ErrCodec)
	}
	head := strings.TrimSpace(text)
	if strings.HasPrefix(head, "{") || strings.HasPrefix(head, "[") {
		return "", fmt.Errorf("%w: payload looks like JSON, TOON expected", ErrCodec)
	}
	return text, nil
}

// StructurallyEqual compares two JSON values after normalizing both
// through a JSON round trip, so int/float representation differences do
// not count as mismatches.
func StructurallyEqual(a, b any) bool {
	na, err := jsonNormalize(a)
	if err != nil {
		return false
	}
	nb, err := jsonNormalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func jsonNormalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cacheKey(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
