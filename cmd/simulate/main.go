package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/webmarket/dental-scheduling/internal/db"
)

// simulate drives concurrent booking traffic at a running api-server.
// Workers deliberately pile onto a small pool of slots so that the
// one-winner-per-slot guarantee is exercised under real contention.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	PatientLimit int
	SlotLimit    int
	PostgresDSN  string
}

func loadSimConfig() (SimConfig, error) {
	cfg := SimConfig{
		APIBaseURL:   envOr("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:     30 * time.Second,
		Workers:      16,
		PatientLimit: 200,
		SlotLimit:    50,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
	}

	if v := os.Getenv("SIM_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SIM_DURATION: %w", err)
		}
		cfg.Duration = d
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("SIM_WORKERS must be a positive integer")
		}
		cfg.Workers = n
	}
	if cfg.PostgresDSN == "" {
		return cfg, fmt.Errorf("POSTGRES_DSN is required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type DataPool struct {
	Patients []uuid.UUID
	Slots    []uuid.UUID

	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type Metrics struct {
	Booked    int64
	Confirmed int64
	Cancelled int64
	Conflicts int64
	Errors    int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := loadSimConfig()
	if err != nil {
		log.Fatalf("simulate config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	data := &DataPool{}
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelLoad()

	rows, err := pool.Query(loadCtx, `SELECT id FROM patients LIMIT $1`, cfg.PatientLimit)
	if err != nil {
		log.Fatalf("load patients: %v", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			log.Fatalf("scan patient: %v", err)
		}
		data.Patients = append(data.Patients, id)
	}
	rows.Close()

	rows, err = pool.Query(loadCtx, `
		SELECT s.id
		FROM slots s
		WHERE s.available = true
		LIMIT $1
	`, cfg.SlotLimit)
	if err != nil {
		log.Fatalf("load slots: %v", err)
	}
	slotDentist := make(map[uuid.UUID]uuid.UUID)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			log.Fatalf("scan slot: %v", err)
		}
		data.Slots = append(data.Slots, id)
	}
	rows.Close()

	for _, slotID := range data.Slots {
		var dentistID uuid.UUID
		if err := pool.QueryRow(loadCtx, `SELECT dentist_id FROM slots WHERE id = $1`, slotID).Scan(&dentistID); err != nil {
			log.Fatalf("load slot dentist: %v", err)
		}
		slotDentist[slotID] = dentistID
	}

	if len(data.Patients) == 0 || len(data.Slots) == 0 {
		log.Fatal("no patients or slots loaded, run cmd/seed first")
	}

	log.Printf("starting simulation: %d workers, %s, %d patients, %d slots",
		cfg.Workers, cfg.Duration, len(data.Patients), len(data.Slots))

	runCtx, cancelRun := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancelRun()

	client := &http.Client{Timeout: 5 * time.Second}
	var metrics Metrics

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			worker(runCtx, client, cfg, data, slotDentist, &metrics, rng)
		}(i)
	}
	wg.Wait()

	log.Printf("simulation complete: booked=%d confirmed=%d cancelled=%d conflicts=%d errors=%d",
		atomic.LoadInt64(&metrics.Booked),
		atomic.LoadInt64(&metrics.Confirmed),
		atomic.LoadInt64(&metrics.Cancelled),
		atomic.LoadInt64(&metrics.Conflicts),
		atomic.LoadInt64(&metrics.Errors),
	)
}

func worker(ctx context.Context, client *http.Client, cfg SimConfig, data *DataPool, slotDentist map[uuid.UUID]uuid.UUID, metrics *Metrics, rng *rand.Rand) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch r := rng.Float64(); {
		case r < 0.6:
			doBooking(ctx, client, cfg, data, slotDentist, metrics, rng)
		case r < 0.8:
			doTransition(ctx, client, cfg, data, metrics, rng, "confirm", &metrics.Confirmed)
		default:
			doTransition(ctx, client, cfg, data, metrics, rng, "cancel", &metrics.Cancelled)
		}
	}
}

func doBooking(ctx context.Context, client *http.Client, cfg SimConfig, data *DataPool, slotDentist map[uuid.UUID]uuid.UUID, metrics *Metrics, rng *rand.Rand) {
	// Squeeze slot choice into a narrow range so several workers race
	// for the same slot most of the time.
	slotID := data.Slots[rng.Intn(len(data.Slots))]
	patientID := data.Patients[rng.Intn(len(data.Patients))]

	reqBody, _ := json.Marshal(map[string]string{
		"slot_id":    slotID.String(),
		"dentist_id": slotDentist[slotID].String(),
		"patient_id": patientID.String(),
		"reason":     "checkup",
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		atomic.AddInt64(&metrics.Booked, 1)
		var apptResp struct {
			ID uuid.UUID `json:"id"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apptResp) == nil && apptResp.ID != uuid.Nil {
			data.AddAppointment(apptResp.ID)
		}
	case http.StatusConflict:
		atomic.AddInt64(&metrics.Conflicts, 1)
	default:
		atomic.AddInt64(&metrics.Errors, 1)
	}
}

func doTransition(ctx context.Context, client *http.Client, cfg SimConfig, data *DataPool, metrics *Metrics, rng *rand.Rand, action string, counter *int64) {
	apptID, ok := data.RandomAppointment(rng)
	if !ok {
		return
	}

	url := fmt.Sprintf("%s/appointments/%s/%s", cfg.APIBaseURL, apptID.String(), action)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		atomic.AddInt64(counter, 1)
	case http.StatusConflict:
		atomic.AddInt64(&metrics.Conflicts, 1)
	default:
		atomic.AddInt64(&metrics.Errors, 1)
	}
}
