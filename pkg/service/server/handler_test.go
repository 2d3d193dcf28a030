package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/pcscout-dev/pcscout/pkg/adapter"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/pcscout-dev/pcscout/pkg/repository"
	"github.com/pcscout-dev/pcscout/pkg/service/server"
	"github.com/pcscout-dev/pcscout/pkg/tool"
	toolprovider "github.com/pcscout-dev/pcscout/pkg/tool/provider"
	provideruc "github.com/pcscout-dev/pcscout/pkg/usecase/provider"
	queryuc "github.com/pcscout-dev/pcscout/pkg/usecase/query"
	searchuc "github.com/pcscout-dev/pcscout/pkg/usecase/search"
	"google.golang.org/genai"
)

type stubGemini struct {
	adapter.Gemini
	answer string
}

func (m *stubGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role:  genai.RoleModel,
					Parts: []*genai.Part{{Text: m.answer}},
				},
			},
		},
	}, nil
}

func (m *stubGemini) Embedding(ctx context.Context, text string, dimension int) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type fakeProvider struct {
	name string
	fail bool
}

func (x *fakeProvider) Name() string { return x.name }

func (x *fakeProvider) GetData(ctx context.Context, params map[string]any) (*model.ExtractedData, error) {
	if x.fail {
		return nil, goerr.New("unreachable")
	}
	return &model.ExtractedData{DateTime: "2026-08-31T10:00:00Z", StoreName: x.name}, nil
}

var _ toolprovider.Provider = &fakeProvider{}

func testServer(t *testing.T) http.Handler {
	t.Helper()

	gemini := &stubGemini{answer: "599 EUR at Links"}
	repo := repository.NewMemory(3)
	gt.NoError(t, repo.PutItem(context.Background(), &model.StoredItem{
		Price:       "599.00",
		Description: "RTX 4070",
		ItemCode:    "VGA-1",
		StoreName:   "Links",
		DateTime:    "2026-08-31T10:00:00Z",
		Embedding:   firestore.Vector32{1, 0, 0},
	}))

	srv := server.New("127.0.0.1:0",
		queryuc.New(gemini, tool.New()),
		searchuc.New(gemini, repo, searchuc.WithDimension(3)),
		provideruc.New(&fakeProvider{name: "links"}, &fakeProvider{name: "protis", fail: true}))

	return srv.Handler()
}

func TestHealthEndpoint(t *testing.T) {
	h := testServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	gt.Equal(t, rec.Code, http.StatusOK)
}

func TestQueryEndpoint(t *testing.T) {
	h := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/query?user_id=alice",
		bytes.NewBufferString("how much is an rtx 4070?"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	gt.Equal(t, rec.Code, http.StatusOK)

	var resp struct {
		SessionID string `json:"session_id"`
		Answer    string `json:"answer"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.Equal(t, resp.SessionID, "alice")
	gt.S(t, resp.Answer).Contains("599 EUR")
}

func TestQueryEndpointEmptyBody(t *testing.T) {
	h := testServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", nil))
	gt.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestQueryDBEndpoint(t *testing.T) {
	h := testServer(t)

	body, _ := json.Marshal(map[string]any{"text": "graphics card", "max_results": 5})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query_db", bytes.NewReader(body)))

	gt.Equal(t, rec.Code, http.StatusOK)

	var resp struct {
		Items []*model.RetrievedItem `json:"items"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.A(t, resp.Items).Length(1)
	gt.Equal(t, resp.Items[0].ItemCode, "VGA-1")
}

func TestQueryDBEndpointRequiresText(t *testing.T) {
	h := testServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query_db",
		bytes.NewBufferString(`{"max_results": 5}`)))
	gt.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestProviderEndpointFanOut(t *testing.T) {
	h := testServer(t)

	body, _ := json.Marshal(map[string]any{"params": map[string]any{"query": "ssd"}})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/provider", bytes.NewReader(body)))

	gt.Equal(t, rec.Code, http.StatusOK)

	var resp struct {
		Results []*provideruc.Result `json:"results"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// The failing provider is excluded, not fatal
	gt.A(t, resp.Results).Length(1)
	gt.Equal(t, resp.Results[0].Provider, "links")
}

func TestProviderEndpointByName(t *testing.T) {
	h := testServer(t)

	body, _ := json.Marshal(map[string]any{
		"provider": "links",
		"params":   map[string]any{"query": "gpu"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/provider", bytes.NewReader(body)))
	gt.Equal(t, rec.Code, http.StatusOK)
}

func TestProviderEndpointUnknownName(t *testing.T) {
	h := testServer(t)

	body, _ := json.Marshal(map[string]any{
		"provider": "nonexistent",
		"params":   map[string]any{"query": "gpu"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/provider", bytes.NewReader(body)))
	gt.Equal(t, rec.Code, http.StatusNotFound)
}

func TestProviderEndpointRequiresParams(t *testing.T) {
	h := testServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/provider",
		bytes.NewBufferString(`{"provider": "links"}`)))
	gt.Equal(t, rec.Code, http.StatusBadRequest)
}
