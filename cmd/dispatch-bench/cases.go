// README: Bench cases: environment checks, HTTP contract probes, the match race probe and a load run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ridedispatch/internal/infra"
	"ridedispatch/internal/modules/matching"
	"ridedispatch/internal/types"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"

	benchRideType = "bench_standard"
	benchWorkerID = 900001
)

var (
	benchPickup  = types.Point{Lat: 1.3000, Lng: 103.8000}
	schemaTables = []string{"ride_types", "ride_requests", "payments", "user_devices"}
)

type Runner struct {
	cfg     Config
	httpc   *http.Client
	db      *pgxpool.Pool
	redis   *redis.Client
	mongo   *mongo.Client
	workers *matching.MongoStore
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}
	if r.cfg.MongoURI != "" {
		if c, err := mongo.Connect(ctx, options.Client().ApplyURI(r.cfg.MongoURI)); err == nil {
			r.mongo = c
			r.workers = matching.NewMongoStore(c.Database(r.cfg.MongoDB), r.cfg.MongoWorkers)
		}
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	if r.mongo != nil {
		_ = r.mongo.Disconnect(context.Background())
	}
	return results
}

func rideBody(rideType, payment string, passengers int) map[string]any {
	return map[string]any{
		"rider_id":         4242,
		"pickup_lat":       benchPickup.Lat,
		"pickup_lng":       benchPickup.Lng,
		"dropoff_lat":      1.3100,
		"dropoff_lng":      103.8200,
		"pickup_address":   "Bench Pickup",
		"dropoff_address":  "Bench Dropoff",
		"ride_type":        rideType,
		"payment_method":   payment,
		"distance_meters":  2500,
		"duration_seconds": 600,
		"no_of_passenger":  passengers,
	}
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusFail, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: MongoDB connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.mongo == nil {
					return Result{Status: statusFail, Note: "mongo not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.mongo.Ping(ctx, nil); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: statusSkip, Note: "apply-migration=false"}
				}
				if err := infra.Migrate(r.cfg.DSN); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				for _, t := range schemaTables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Seed: ride type and online worker",
			Run:  seed,
		},
		httpCaseMethod("API: health", http.MethodGet, base+"/health", nil, nil, []int{200}),
		httpCaseMethod("Pricing: list ride types", http.MethodGet, base+"/api/ride-types", nil, nil, []int{200}),

		httpCase("Dispatch: request ride (matched or unmatched)", base+"/api/rides/request",
			rideBody(benchRideType, "cash", 1), []int{200, 201}),
		httpCase("Dispatch: missing fields -> 400", base+"/api/rides/request",
			map[string]any{}, []int{400}),
		httpCase("Dispatch: unknown ride type -> 400", base+"/api/rides/request",
			rideBody("no_such_type", "cash", 1), []int{400}),
		httpCase("Dispatch: unsupported payment -> 400", base+"/api/rides/request",
			rideBody(benchRideType, "voucher", 1), []int{400}),
		httpCase("Dispatch: oversized party -> 200 unmatched", base+"/api/rides/request",
			rideBody(benchRideType, "card", 40), []int{200}),

		httpCaseMethod("Ledger: unknown id -> 404", http.MethodGet, base+"/api/rides/999999999", nil, nil, []int{404}),
		httpCaseMethod("Ledger: non-numeric id -> 400", http.MethodGet, base+"/api/rides/abc", nil, nil, []int{400}),
		httpCaseMethod("Popularity: top locations", http.MethodGet, base+"/api/popular-locations", nil, nil, []int{200}),

		{
			Name: "Idempotency: replay returns stored response",
			Run: func(ctx context.Context, r *Runner) Result {
				return idempotentReplay(ctx, r, base+"/api/rides/request")
			},
		},
		{
			Name: "Concurrency: same worker handed to concurrent requests",
			Run: func(ctx context.Context, r *Runner) Result {
				return matchRace(ctx, r, base+"/api/rides/request")
			},
		},

		manualCase("Error: MongoDB down -> 500", "stop MongoDB and send a valid request"),
		manualCase("Error: Redis down -> requests still served", "stop Redis; pricing falls back to Postgres, rate limit fails open"),
		manualCase("Realtime: broadcast reaches connected sockets", "connect to /ws and watch for ride_request_broadcast"),

		{
			Name: "Perf: request ride throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/rides/request", rideBody(benchRideType, "cash", 1))
			},
		},
	}
}

func seed(ctx context.Context, r *Runner) Result {
	if !r.cfg.Seed {
		return Result{Status: statusSkip, Note: "seed=false"}
	}
	if r.db == nil || r.workers == nil {
		return Result{Status: statusFail, Note: "db or mongo not configured"}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO ride_types (name, base_fare, per_km, per_min)
		VALUES ($1, 500, 100, 50)
		ON CONFLICT (name) DO UPDATE SET base_fare = EXCLUDED.base_fare, per_km = EXCLUDED.per_km,
			per_min = EXCLUDED.per_min, updated_at = NOW()`, benchRideType)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if r.redis != nil {
		// the API caches the table; drop it so the new row is visible
		_ = r.redis.Del(ctx, "ride_types").Err()
	}
	err = r.workers.Upsert(ctx, matching.Worker{
		UserID:            benchWorkerID,
		Name:              "Bench Worker",
		Phone:             "+65 8000 0001",
		IsOnline:          true,
		AvailableCapacity: 4,
		Location:          matching.NewGeoPoint(types.Point{Lat: benchPickup.Lat + 0.002, Lng: benchPickup.Lng}),
	})
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func httpCase(name, url string, body any, okStatuses []int) TestCase {
	return httpCaseMethod(name, http.MethodPost, url, body, nil, okStatuses)
}

func httpCaseMethod(name, method, url string, body any, headers map[string]string, okStatuses []int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			status, _, err := r.do(ctx, method, url, body, headers)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			latency := time.Since(start)
			if contains(okStatuses, status) {
				return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
			}
			return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
		},
	}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: statusSkip, Note: note}
		},
	}
}

func (r *Runner) do(ctx context.Context, method, url string, body any, headers map[string]string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return resp.StatusCode, b, err
}

func idempotentReplay(ctx context.Context, r *Runner, url string) Result {
	headers := map[string]string{"Idempotency-Key": fmt.Sprintf("bench-%d", time.Now().UnixNano())}
	body := rideBody(benchRideType, "cash", 1)

	s1, b1, err := r.do(ctx, http.MethodPost, url, body, headers)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	s2, b2, err := r.do(ctx, http.MethodPost, url, body, headers)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if s1 != s2 || string(b1) != string(b2) {
		return Result{Status: statusFail, Note: fmt.Sprintf("first=%d second=%d bodies differ=%t", s1, s2, string(b1) != string(b2))}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("status=%d", s1)}
}

// matchRace fires concurrent requests at one pickup point. Without worker
// reservation several of them may be matched to the seeded worker; the case
// reports the count rather than failing on it.
func matchRace(ctx context.Context, r *Runner, url string) Result {
	body := rideBody(benchRideType, "cash", 1)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sameID   int
		errCount int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, b, err := r.do(ctx, http.MethodPost, url, body, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil || status >= 500 {
				errCount++
				return
			}
			var resp struct {
				NearestDriver *struct {
					UserID int64 `json:"user_id"`
				} `json:"nearest_driver"`
			}
			if json.Unmarshal(b, &resp) == nil && resp.NearestDriver != nil && resp.NearestDriver.UserID == benchWorkerID {
				sameID++
			}
		}()
	}
	wg.Wait()

	if errCount == r.cfg.Concurrency {
		return Result{Status: statusFail, Note: "every request failed"}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("matched_seeded_worker=%d of %d errors=%d", sameID, r.cfg.Concurrency, errCount)}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		count, errCount, limited int64
		mu                       sync.Mutex
		wg                       sync.WaitGroup
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				status, _, err := r.do(ctx, http.MethodPost, url, payload, nil)
				mu.Lock()
				switch {
				case err != nil:
					errCount++
				case status == http.StatusTooManyRequests:
					limited++
				default:
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: fmt.Sprintf("no requests completed (rate_limited=%d errors=%d)", limited, errCount)}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f rate_limited=%d errors=%d", rps, limited, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}
