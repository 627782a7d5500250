// Package block serves the read-only block catalog kept in the blocks bucket
// under blocks/<author>/<name>/.
package block

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/domain"
	s3infra "github.com/blockprotocol/hub-api/internal/infrastructure/s3"
)

const (
	rootPrefix   = "blocks/"
	metadataFile = "block-metadata.json"
)

var segmentPattern = regexp.MustCompile(`^@?[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

type Service interface {
	List(ctx context.Context) ([]domain.BlockMetadata, error)
	Get(ctx context.Context, author, name string) (*domain.BlockMetadata, error)
	// Asset opens a file inside the block's directory. The caller closes it.
	Asset(ctx context.Context, author, name, file string) (*s3infra.Object, error)
}

type objectStore interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Download(ctx context.Context, key string) (*s3infra.Object, error)
}

type service struct {
	store  objectStore
	logger *zerolog.Logger
}

type ServiceDeps struct {
	Store  objectStore
	Logger *zerolog.Logger
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &service{store: deps.Store, logger: logger}
}

func (s *service) List(ctx context.Context) ([]domain.BlockMetadata, error) {
	keys, err := s.store.ListKeys(ctx, rootPrefix)
	if err != nil {
		return nil, err
	}
	blocks := []domain.BlockMetadata{}
	for _, key := range keys {
		author, name, ok := metadataKeyParts(key)
		if !ok {
			continue
		}
		meta, err := s.load(ctx, author, name)
		if err != nil {
			// One broken upload should not hide the rest of the catalog.
			s.logger.Warn().Err(err).Str("key", key).Msg("skipping unreadable block metadata")
			continue
		}
		blocks = append(blocks, *meta)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].PackagePath < blocks[j].PackagePath })
	return blocks, nil
}

func (s *service) Get(ctx context.Context, author, name string) (*domain.BlockMetadata, error) {
	if err := checkSegments(author, name); err != nil {
		return nil, err
	}
	meta, err := s.load(ctx, author, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "", fmt.Sprintf("Could not find block %s/%s.", author, name))
	}
	return meta, err
}

func (s *service) Asset(ctx context.Context, author, name, file string) (*s3infra.Object, error) {
	if err := checkSegments(author, name); err != nil {
		return nil, err
	}
	clean, ok := assetPath(file)
	if !ok {
		return nil, domain.NewParamError(domain.ErrBadRequest, "path", "Invalid asset path.")
	}
	obj, err := s.store.Download(ctx, blockPrefix(author, name)+clean)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "", fmt.Sprintf("Could not find %s in block %s/%s.", clean, author, name))
	}
	return obj, err
}

func (s *service) load(ctx context.Context, author, name string) (*domain.BlockMetadata, error) {
	obj, err := s.store.Download(ctx, blockPrefix(author, name)+metadataFile)
	if err != nil {
		return nil, err
	}
	defer obj.Body.Close()

	var meta domain.BlockMetadata
	if err := json.NewDecoder(obj.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode %s/%s metadata: %w", author, name, err)
	}
	meta.PackagePath = author + "/" + name
	if meta.Author == "" {
		meta.Author = strings.TrimPrefix(author, "@")
	}
	return &meta, nil
}

func blockPrefix(author, name string) string {
	return rootPrefix + author + "/" + name + "/"
}

// metadataKeyParts matches blocks/<author>/<name>/block-metadata.json.
func metadataKeyParts(key string) (author, name string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(key, rootPrefix), "/")
	if len(parts) != 3 || parts[2] != metadataFile {
		return "", "", false
	}
	if checkSegments(parts[0], parts[1]) != nil {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func checkSegments(author, name string) error {
	if !segmentPattern.MatchString(author) || strings.Contains(author, "..") {
		return domain.NewParamError(domain.ErrBadRequest, "author", "Invalid block author.")
	}
	if !segmentPattern.MatchString(name) || strings.Contains(name, "..") {
		return domain.NewParamError(domain.ErrBadRequest, "name", "Invalid block name.")
	}
	return nil
}

// assetPath cleans a relative file path and refuses anything that would
// leave the block directory.
func assetPath(file string) (string, bool) {
	if file == "" || strings.HasPrefix(file, "/") || strings.Contains(file, `\`) {
		return "", false
	}
	for _, seg := range strings.Split(file, "/") {
		if seg == ".." {
			return "", false
		}
	}
	clean := path.Clean(file)
	if clean == "." {
		return "", false
	}
	return clean, true
}
