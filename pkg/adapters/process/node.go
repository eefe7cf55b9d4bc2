// Package process implements node types backed by external commands.
//
// Keyword arguments are never passed as command-line flags. Each one is exported
// as a NODEFLOW_ARG_<KEY> environment variable and the whole set is written to
// stdin as a JSON object. Stdout is decoded into a Bundle.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// Environment variable names seen by node commands.
const (
	EnvArgPrefix = "NODEFLOW_ARG_"
	EnvOperation = "NODEFLOW_OP"
)

// Node invokes an external command once per operation.
type Node struct {
	cfg NodeConfig
	dir string
}

// NewNode creates a node for cfg. Relative commands resolve against dir,
// which is also the working directory of every invocation.
func NewNode(cfg NodeConfig, dir string) *Node {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if strings.ContainsRune(cfg.Command, filepath.Separator) && !filepath.IsAbs(cfg.Command) {
		cfg.Command = filepath.Join(dir, cfg.Command)
	}
	return &Node{cfg: cfg, dir: dir}
}

// NodeType wraps cfg into a registrable node type whose source is dir.
func NodeType(cfg NodeConfig, dir string) domain.NodeType {
	return domain.NodeType{
		Name:        cfg.Name,
		Category:    cfg.Category,
		Description: cfg.Description,
		Operations:  cfg.Operations,
		Source:      dir,
		New: func() (domain.Node, error) {
			return NewNode(cfg, dir), nil
		},
	}
}

// Invoke runs the command for op. A non-zero exit is returned as an error carrying stderr.
func (n *Node) Invoke(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
	if !n.nodeType().Supports(op) {
		return domain.Bundle{}, fmt.Errorf("%w: %s.%s", domain.ErrUnknownOperation, n.cfg.Name, op)
	}

	payload, err := json.Marshal(kw)
	if err != nil {
		return domain.Bundle{}, fmt.Errorf("failed to encode kwargs for %s: %w", n.cfg.Name, err)
	}

	cmd := exec.CommandContext(ctx, n.cfg.Command, n.cfg.Args...)
	cmd.Dir = n.dir
	cmd.Stdin = bytes.NewReader(payload)

	env := cmd.Environ()
	for k, v := range n.cfg.Environment {
		env = append(env, k+"="+v)
	}
	env = append(env, EnvOperation+"="+op)
	for k, v := range kw {
		env = append(env, EnvArgPrefix+strings.ToUpper(k)+"="+envValue(v))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return domain.Bundle{}, fmt.Errorf("%s.%s failed: %w. Stderr: %s",
			n.cfg.Name, op, err, strings.TrimSpace(stderr.String()))
	}

	return decodeOutput(stdout.String()), nil
}

func (n *Node) nodeType() domain.NodeType {
	return domain.NodeType{Name: n.cfg.Name, Operations: n.cfg.Operations}
}

// envValue formats primitives with %v and everything else as JSON.
func envValue(v any) string {
	switch v.(type) {
	case string, int, int64, uint64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}

// decodeOutput maps a JSON array to a sequence and a JSON object to a record.
// Anything else becomes a one-element sequence holding the trimmed text.
func decodeOutput(out string) domain.Bundle {
	trimmed := strings.TrimSpace(out)

	switch {
	case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
		var items []any
		if err := decodeJSON(trimmed, &items); err == nil {
			for i := range items {
				items[i] = exactNumbers(items[i])
			}
			return domain.Seq(items...)
		}
	case strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}"):
		var fields map[string]any
		if err := decodeJSON(trimmed, &fields); err == nil {
			for k, v := range fields {
				fields[k] = exactNumbers(v)
			}
			return domain.Record(fields)
		}
	}
	return domain.Seq(trimmed)
}

func decodeJSON(doc string, v any) error {
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}

// exactNumbers replaces json.Number values with int64, uint64 or float64,
// the first that represents the number without loss.
func exactNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return u
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = exactNumbers(t[i])
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = exactNumbers(e)
		}
		return t
	default:
		return v
	}
}
