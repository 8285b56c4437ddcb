package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/centinela-app/centinela/internal/common"
)

// FirestoreStore implements Store on top of Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, projectID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, path string) (map[string]any, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return snap.Data(), nil
}

func (s *FirestoreStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Set(ctx context.Context, path string, fields map[string]any) error {
	if _, err := s.client.Doc(path).Set(ctx, fields); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, path string, updates []Update) error {
	fu := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		v := u.Value
		if inc, ok := v.(increment); ok {
			v = firestore.Increment(inc.delta)
		}
		fu = append(fu, firestore.Update{Path: u.Field, Value: v})
	}
	if _, err := s.client.Doc(path).Update(ctx, fu); err != nil {
		if status.Code(err) == codes.NotFound {
			return common.ErrNotFound
		}
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, path string) error {
	if _, err := s.client.Doc(path).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
