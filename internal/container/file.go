package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/louisbranch/palimpsest/internal/container")

// WriteFile encodes the container and writes it to path. The write goes
// through a temporary file and a rename so a crash never leaves a truncated
// container at the destination.
func WriteFile(ctx context.Context, path string, c Container) error {
	_, span := tracer.Start(ctx, "container.write")
	defer span.End()
	span.SetAttributes(
		attribute.String("container.path", path),
		attribute.Int("container.events", len(c.Events)),
		attribute.Int("container.checkpoints", len(c.Checkpoints)),
	)

	data, err := Encode(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".container-*")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("create temp container: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("write container: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("close container: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("publish container: %w", err)
	}
	return nil
}

// ReadFile reads and decodes the container at path.
func ReadFile(ctx context.Context, path string) (Container, error) {
	_, span := tracer.Start(ctx, "container.read")
	defer span.End()
	span.SetAttributes(attribute.String("container.path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Container{}, fmt.Errorf("read container: %w", err)
	}

	c, err := Decode(data)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Container{}, err
	}
	return c, nil
}
