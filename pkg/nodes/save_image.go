package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"path"
	"reflect"
	"strings"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/ports"
)

// OpSaveImages persists the images kwarg under filename_prefix.
const OpSaveImages = "save_images"

// DefaultFilenamePrefix is used when filename_prefix is empty.
const DefaultFilenamePrefix = "ComfyUI"

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// SaveImage is the terminal persistence node. The store decides the final names.
type SaveImage struct {
	Store ports.ArtifactStore
}

type saveArgs struct {
	FilenamePrefix string `mapstructure:"filename_prefix"`
	Images         any    `mapstructure:"images"`
}

// SavedImage describes one written artifact in the "ui" section of the output.
type SavedImage struct {
	Filename  string `json:"filename" mapstructure:"filename"`
	Subfolder string `json:"subfolder" mapstructure:"subfolder"`
	Type      string `json:"type" mapstructure:"type"`
}

// Invoke writes every image and returns Record{"ui": {"images": ...}, "result": keys}.
func (s *SaveImage) Invoke(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
	if op != OpSaveImages {
		return domain.Bundle{}, fmt.Errorf("%w: %s", domain.ErrUnknownOperation, op)
	}

	var args saveArgs
	if err := decode(kw, &args); err != nil {
		return domain.Bundle{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.FilenamePrefix == "" {
		args.FilenamePrefix = DefaultFilenamePrefix
	}

	items := flatten(args.Images)
	if len(items) == 0 {
		return domain.Bundle{}, fmt.Errorf("%s: no images to save", SaveImageType)
	}

	saved := make([]SavedImage, 0, len(items))
	keys := make([]any, 0, len(items))
	for i, item := range items {
		data, ext, err := encode(item)
		if err != nil {
			return domain.Bundle{}, fmt.Errorf("image %d: %w", i, err)
		}
		key, err := s.Store.Put(ctx, args.FilenamePrefix, ext, data)
		if err != nil {
			return domain.Bundle{}, fmt.Errorf("image %d: %w", i, err)
		}
		domain.RecordArtifact(ctx, key)

		dir, file := path.Split(key)
		saved = append(saved, SavedImage{Filename: file, Subfolder: strings.TrimSuffix(dir, "/"), Type: "output"})
		keys = append(keys, key)
	}

	return domain.Record(map[string]any{
		"ui":             map[string]any{"images": saved},
		domain.ResultKey: keys,
	}), nil
}

// flatten treats a slice as a batch; anything else, raw bytes included, is a single image.
func flatten(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte, string, image.Image:
		return []any{val}
	case []any:
		return val
	case domain.Bundle:
		if !val.IsRecord() {
			return val.Items()
		}
		return []any{val.Fields()}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// encode picks the stored representation of one artifact and its extension.
func encode(v any) ([]byte, string, error) {
	switch val := v.(type) {
	case image.Image:
		var buf bytes.Buffer
		if err := png.Encode(&buf, val); err != nil {
			return nil, "", fmt.Errorf("failed to encode png: %w", err)
		}
		return buf.Bytes(), "png", nil
	case []byte:
		if bytes.HasPrefix(val, pngMagic) {
			return val, "png", nil
		}
		return val, "bin", nil
	case string:
		return []byte(val), "txt", nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode artifact: %w", err)
		}
		return data, "json", nil
	}
}
