package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// userDoc is what gets indexed. The password hash never leaves the store.
type userDoc struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	ProfileImagePublicID  *string   `json:"profile_image_public_id"`
	ProfileImageSecureURL string    `json:"profile_image_url"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func toDoc(u *entity.User) userDoc {
	return userDoc{
		ID:                    u.ID,
		Name:                  u.Name,
		Email:                 u.Email,
		ProfileImagePublicID:  u.ProfileImage.PublicID,
		ProfileImageSecureURL: u.ProfileImage.SecureURL,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func (d userDoc) toEntity() entity.User {
	return entity.User{
		ID:    d.ID,
		Name:  d.Name,
		Email: d.Email,
		ProfileImage: entity.ProfileImage{
			PublicID:  d.ProfileImagePublicID,
			SecureURL: d.ProfileImageSecureURL,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// UserIndex keeps a searchable copy of user profiles in Elasticsearch.
type UserIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{es: es, index: index}
}

func (x *UserIndex) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(toDoc(u))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return fmt.Errorf("search: index user %s: %w", u.ID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("search: index user %s: %s", u.ID, res.Status())
	}
	return nil
}

// Search runs a multi_match over email and name.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]entity.User, error) {
	body, err := json.Marshal(searchQuery(q, size))
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: query users: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search: query users: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.users(), nil
}

func searchQuery(q string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Source userDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r searchResponse) users() []entity.User {
	out := make([]entity.User, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		u := h.Source.toEntity()
		if u.ID == "" {
			u.ID = h.ID
		}
		out = append(out, u)
	}
	return out
}
