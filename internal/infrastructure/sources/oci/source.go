// Package oci serves module bytes from the layers of an OCI artifact.
//
// Each module is one layer; the layer's org.opencontainers.image.title
// annotation carries the resource path (com/app/Widget.wasm). The reference
// is resolved on every Open so that moving a tag is picked up by the next
// loader generation.
package oci

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/reglet-dev/hotload/internal/application/ports"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
)

// Ensure interface compliance
var _ ports.ByteSource = (*Source)(nil)

const (
	// ArtifactType identifies manifests published by Publish.
	ArtifactType = "application/vnd.hotload.modules.v1"
	// LayerMediaType is the media type of module layers.
	LayerMediaType = "application/wasm"
)

// Source implements ports.ByteSource over an oras target.
type Source struct {
	target    oras.ReadOnlyTarget
	reference string
}

// NewSource reads the artifact tagged reference from target.
func NewSource(target oras.ReadOnlyTarget, reference string) *Source {
	return &Source{
		target:    target,
		reference: reference,
	}
}

// NewRemoteSource reads from a registry reference such as
// ghcr.io/acme/modules:dev.
func NewRemoteSource(ref string, plainHTTP bool) (*Source, error) {
	repo, err := newRepository(ref, plainHTTP)
	if err != nil {
		return nil, err
	}
	return NewSource(repo, repo.Reference.Reference), nil
}

// Open implements ports.ByteSource.
func (s *Source) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	manifest, err := s.manifest(ctx)
	if err != nil {
		return nil, err
	}

	for _, layer := range manifest.Layers {
		if layer.Annotations[ocispec.AnnotationTitle] != path {
			continue
		}
		// A listed layer whose blob is gone is a broken artifact, not a miss.
		rc, err := s.target.Fetch(ctx, layer)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch layer %s for %s: %w", layer.Digest, path, err)
		}
		return rc, nil
	}
	return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
}

// Paths lists the resource paths carried by the artifact.
func (s *Source) Paths(ctx context.Context) ([]string, error) {
	manifest, err := s.manifest(ctx)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, layer := range manifest.Layers {
		if title := layer.Annotations[ocispec.AnnotationTitle]; title != "" {
			paths = append(paths, title)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *Source) manifest(ctx context.Context) (*ocispec.Manifest, error) {
	desc, err := s.target.Resolve(ctx, s.reference)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", s.reference, err)
	}
	data, err := content.FetchAll(ctx, s.target, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest %s: %w", desc.Digest, err)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", desc.Digest, err)
	}
	return &manifest, nil
}

// Publish pushes files (resource path → bytes) as one artifact and tags it.
func Publish(ctx context.Context, target oras.Target, tag string, files map[string][]byte) (ocispec.Descriptor, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	layers := make([]ocispec.Descriptor, 0, len(paths))
	for _, p := range paths {
		data := files[p]
		layer := content.NewDescriptorFromBytes(LayerMediaType, data)
		layer.Annotations = map[string]string{ocispec.AnnotationTitle: p}
		if err := pushIfMissing(ctx, target, layer, data); err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("failed to push %s: %w", p, err)
		}
		layers = append(layers, layer)
	}

	config := ocispec.DescriptorEmptyJSON
	if err := pushIfMissing(ctx, target, config, config.Data); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("failed to push config: %w", err)
	}

	manifest := ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Config:       config,
		Layers:       layers,
	}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("failed to encode manifest: %w", err)
	}
	manifestDesc := content.NewDescriptorFromBytes(ocispec.MediaTypeImageManifest, manifestBytes)
	if err := pushIfMissing(ctx, target, manifestDesc, manifestBytes); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("failed to push manifest: %w", err)
	}
	if err := target.Tag(ctx, manifestDesc, tag); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("failed to tag %s: %w", tag, err)
	}
	return manifestDesc, nil
}

// PublishRemote pushes files to a registry reference.
func PublishRemote(ctx context.Context, ref string, plainHTTP bool, files map[string][]byte) (ocispec.Descriptor, error) {
	repo, err := newRepository(ref, plainHTTP)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	return Publish(ctx, repo, repo.Reference.Reference, files)
}

func pushIfMissing(ctx context.Context, target oras.Target, desc ocispec.Descriptor, data []byte) error {
	exists, err := target.Exists(ctx, desc)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = target.Push(ctx, desc, bytes.NewReader(data))
	if errors.Is(err, errdef.ErrAlreadyExists) {
		return nil
	}
	return err
}

func newRepository(ref string, plainHTTP bool) (*remote.Repository, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact reference %s: %w", ref, err)
	}
	if repo.Reference.Reference == "" {
		return nil, fmt.Errorf("artifact reference %s has no tag or digest", ref)
	}
	repo.PlainHTTP = plainHTTP
	return repo, nil
}
