// Package chroma adapts a Chroma collection's HTTP API to the
// services.VectorStore contract. Embeddings are computed server-side by the
// collection's configured embedding function.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"doccast/internal/services"
)

const (
	defaultBaseURL = "http://localhost:8000/api/v1"
	defaultTimeout = 30 * time.Second
)

// Config holds the settings required to reach the collection.
type Config struct {
	BaseURL        string
	Collection     string
	TimeoutSeconds int
}

// Client talks to one Chroma collection.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs an embedding-store client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chunkMetadata struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Source     string `json:"source"`
	StoredAt   string `json:"stored_at"`
}

type addRequest struct {
	IDs       []string        `json:"ids"`
	Documents []string        `json:"documents"`
	Metadatas []chunkMetadata `json:"metadatas"`
}

type queryRequest struct {
	QueryTexts []string               `json:"query_texts"`
	NResults   int                    `json:"n_results"`
	Where      map[string]interface{} `json:"where,omitempty"`
}

type queryResponse struct {
	Documents [][]string        `json:"documents"`
	Metadatas [][]chunkMetadata `json:"metadatas"`
}

type getRequest struct {
	Where map[string]interface{} `json:"where,omitempty"`
}

type getResponse struct {
	Documents []string        `json:"documents"`
	Metadatas []chunkMetadata `json:"metadatas"`
}

// Store saves document chunks under ids of the form <document_id>_chunk_<i>.
func (c *Client) Store(ctx context.Context, documentID string, chunks []string, source string) error {
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	req := addRequest{
		IDs:       make([]string, len(chunks)),
		Documents: chunks,
		Metadatas: make([]chunkMetadata, len(chunks)),
	}
	for i := range chunks {
		req.IDs[i] = fmt.Sprintf("%s_chunk_%d", documentID, i)
		req.Metadatas[i] = chunkMetadata{
			DocumentID: documentID,
			ChunkIndex: i,
			Source:     source,
			StoredAt:   now,
		}
	}

	var resp json.RawMessage
	if err := c.post(ctx, "/add", req, &resp); err != nil {
		return err
	}

	c.logger.Info("Stored document chunks",
		slog.String("document_id", documentID),
		slog.Int("chunks", len(chunks)),
	)

	return nil
}

// Search runs a semantic query restricted to documentIDs. No matches is an
// empty slice, not an error.
func (c *Client) Search(ctx context.Context, query string, documentIDs []string, n int) ([]services.Chunk, error) {
	req := queryRequest{
		QueryTexts: []string{query},
		NResults:   n,
		Where:      whereDocuments(documentIDs),
	}

	var resp queryResponse
	if err := c.post(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Documents) == 0 {
		return nil, nil
	}

	docs := resp.Documents[0]
	var metas []chunkMetadata
	if len(resp.Metadatas) > 0 {
		metas = resp.Metadatas[0]
	}

	return toChunks(docs, metas), nil
}

// GetAll returns every stored chunk for the given documents, ordered by
// chunk index within each document.
func (c *Client) GetAll(ctx context.Context, documentIDs []string) ([]services.Chunk, error) {
	req := getRequest{Where: whereDocuments(documentIDs)}

	var resp getResponse
	if err := c.post(ctx, "/get", req, &resp); err != nil {
		return nil, err
	}

	chunks := toChunks(resp.Documents, resp.Metadatas)
	sortChunks(chunks)
	return chunks, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrPermanent, "encode search payload", err)
	}

	url := fmt.Sprintf("%s/collections/%s%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Collection, path)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrPermanent, "create search request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return services.Wrap(services.ErrTransient, "embedding store request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "read embedding store response", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		marker := services.ErrPermanent
		if resp.StatusCode >= 500 {
			marker = services.ErrTransient
		}
		return services.Wrap(marker, "embedding store", fmt.Errorf("http %d: %s", resp.StatusCode, msg))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return services.Wrap(services.ErrTransient, "decode embedding store response", err)
	}

	return nil
}

func whereDocuments(documentIDs []string) map[string]interface{} {
	if len(documentIDs) == 0 {
		return nil
	}
	ids := make([]interface{}, len(documentIDs))
	for i, id := range documentIDs {
		ids[i] = id
	}
	return map[string]interface{}{
		"document_id": map[string]interface{}{"$in": ids},
	}
}

func toChunks(docs []string, metas []chunkMetadata) []services.Chunk {
	chunks := make([]services.Chunk, 0, len(docs))
	for i, text := range docs {
		chunk := services.Chunk{Text: text}
		if i < len(metas) {
			chunk.DocumentID = metas[i].DocumentID
			chunk.ChunkIndex = metas[i].ChunkIndex
			chunk.Source = metas[i].Source
			if t, err := time.Parse(time.RFC3339, metas[i].StoredAt); err == nil {
				chunk.StoredAt = t
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func sortChunks(chunks []services.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
}
