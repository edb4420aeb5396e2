package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rickgao/albion-omni/internal/model"
)

func TestChunkItems(t *testing.T) {
	tests := []struct {
		name     string
		items    []string
		size     int
		maxChars int
		want     [][]string
	}{
		{
			name:     "empty",
			items:    nil,
			size:     2,
			maxChars: 100,
			want:     nil,
		},
		{
			name:     "by count",
			items:    []string{"A", "B", "C", "D", "E"},
			size:     2,
			maxChars: 100,
			want:     [][]string{{"A", "B"}, {"C", "D"}, {"E"}},
		},
		{
			name:     "by length",
			items:    []string{"AAAA", "BBBB", "CCCC"},
			size:     10,
			maxChars: 9, // "AAAA,BBBB" fits exactly
			want:     [][]string{{"AAAA", "BBBB"}, {"CCCC"}},
		},
		{
			name:     "skips blanks",
			items:    []string{" A ", "", "  ", "B"},
			size:     10,
			maxChars: 100,
			want:     [][]string{{"A", "B"}},
		},
		{
			name:     "oversized item gets its own chunk",
			items:    []string{"A", "LONGITEM", "B"},
			size:     10,
			maxChars: 4,
			want:     [][]string{{"A"}, {"LONGITEM"}, {"B"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkItems(tt.items, tt.size, tt.maxChars)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("chunkItems() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarketClientGetPrices(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		if got := r.URL.Query().Get("locations"); got != "Caerleon,Martlock" {
			t.Errorf("locations = %q", got)
		}
		if got := r.URL.Query().Get("qualities"); got != "1,2" {
			t.Errorf("qualities = %q", got)
		}

		ids := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v2/stats/prices/"), ".json")
		// Slow down the first chunk so the results arrive out of order.
		if strings.HasPrefix(ids, "A") {
			time.Sleep(20 * time.Millisecond)
		}

		var sb strings.Builder
		sb.WriteString("[")
		for i, id := range strings.Split(ids, ",") {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(`{"item_id":"` + id + `","city":"Caerleon","quality":1,"sell_price_min":100,"sell_price_min_date":"2024-01-01T00:00:00"}`)
		}
		sb.WriteString("]")
		w.Write([]byte(sb.String()))
	}))
	defer server.Close()

	m := NewMarketClient(NewClient("aodp", server.URL), model.RegionAmericas, 2, 3)
	prices, err := m.GetPrices(context.Background(),
		[]string{"A", "B", "C", "D", "E"},
		[]string{"Caerleon", "Martlock"},
		[]int{1, 2},
	)
	if err != nil {
		t.Fatalf("GetPrices() error = %v", err)
	}

	var got []string
	for _, p := range prices {
		got = append(got, p.ItemID)
		if p.Region != model.RegionAmericas {
			t.Errorf("Region = %q, want americas", p.Region)
		}
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D", "E"}, got); diff != "" {
		t.Errorf("item order mismatch (-want +got):\n%s", diff)
	}
	if len(paths) != 3 {
		t.Errorf("requests = %d, want 3", len(paths))
	}
}

func TestMarketClientGetPricesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "C") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	m := NewMarketClient(NewClient("aodp", server.URL), model.RegionAmericas, 2, 2)
	_, err := m.GetPrices(context.Background(), []string{"A", "B", "C"}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "get prices") {
		t.Fatalf("GetPrices() error = %v, want wrapped upstream error", err)
	}
}

func TestMarketClientGetHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/stats/history/T4_BAG.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("time-scale") != "24" || q.Get("date") != "2024-01-01" || q.Get("end_date") != "2024-01-07" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`[{"location":"Thetford","item_id":"T4_BAG","quality":1,"data":[{"item_count":3,"avg_price":2500,"timestamp":"2024-01-02T00:00:00"}]}]`))
	}))
	defer server.Close()

	m := NewMarketClient(NewClient("aodp", server.URL), model.RegionEurope, 0, 0)
	history, err := m.GetHistory(context.Background(), []string{"T4_BAG"}, HistoryOptions{
		TimeScale: 24,
		From:      "2024-01-01",
		To:        "2024-01-07",
	})
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].City != "Thetford" || len(history[0].Points) != 1 {
		t.Fatalf("history = %+v", history)
	}
	if history[0].Points[0].AvgPrice != 2500 {
		t.Errorf("AvgPrice = %d, want 2500", history[0].Points[0].AvgPrice)
	}
}

func TestMarketClientGetGoldPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/stats/gold.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("count"); got != "2" {
			t.Errorf("count = %q, want 2", got)
		}
		w.Write([]byte(`[{"price":4100,"timestamp":"2024-01-01T00:00:00"},{"price":4200,"timestamp":""}]`))
	}))
	defer server.Close()

	m := NewMarketClient(NewClient("aodp", server.URL), model.RegionAsia, 0, 0)
	gold, err := m.GetGoldPrices(context.Background(), 2, "", "")
	if err != nil {
		t.Fatalf("GetGoldPrices() error = %v", err)
	}
	if len(gold) != 1 || gold[0].Price != 4100 {
		t.Errorf("gold = %+v, want one point at 4100", gold)
	}
}
