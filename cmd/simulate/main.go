// Command simulate generates synthetic transaction traffic against a
// running detector, mixing routine purchases with bursty and high-value
// patterns that should trip the risk rules.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type request struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	MerchantID    string          `json:"merchant_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
}

func main() {
	target := flag.String("target", "http://localhost:9090", "detector base URL")
	count := flag.Int("count", 1000, "transactions to send")
	rate := flag.Int("rate", 100, "transactions per second")
	seed := flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	sync := flag.Bool("sync", false, "use POST /score instead of POST /transactions")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	users := make([]string, 50)
	for i := range users {
		users[i] = fmt.Sprintf("user-%03d", i)
	}
	merchants := make([]string, 20)
	for i := range merchants {
		merchants[i] = fmt.Sprintf("merchant-%03d", i)
	}
	types := []string{"purchase", "purchase", "purchase", "withdrawal", "transfer", "refund"}

	path := "/transactions"
	if *sync {
		path = "/score"
	}
	client := &http.Client{Timeout: 5 * time.Second}
	interval := time.Second / time.Duration(*rate)

	sent, failed := 0, 0
	for i := 0; i < *count; i++ {
		req := request{
			TransactionID: uuid.NewString(),
			UserID:        users[rng.Intn(len(users))],
			MerchantID:    merchants[rng.Intn(len(merchants))],
			Amount:        amountFor(rng),
			Type:          types[rng.Intn(len(types))],
			Timestamp:     time.Now().UTC(),
		}
		// Occasionally hammer one user to build a velocity burst.
		if rng.Float64() < 0.05 {
			req.UserID = "user-burst"
		}

		if err := send(client, *target+path, req); err != nil {
			failed++
			if failed == 1 {
				fmt.Fprintln(os.Stderr, "send failed:", err)
			}
		} else {
			sent++
		}
		time.Sleep(interval)
	}
	fmt.Printf("sent %d, failed %d\n", sent, failed)
}

// amountFor draws mostly small everyday amounts with a heavy tail of
// large ones.
func amountFor(rng *rand.Rand) decimal.Decimal {
	v := rng.ExpFloat64() * 80
	if rng.Float64() < 0.03 {
		v = 1000 + rng.Float64()*9000
	}
	if v < 1 {
		v = 1
	}
	return decimal.NewFromFloat(v).Round(2)
}

func send(client *http.Client, url string, req request) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %s", resp.Status)
	}
	return nil
}
