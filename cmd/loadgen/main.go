// Command loadgen hammers a running server with concurrent score submissions
// and then checks that every stored best equals the maximum it sent. A lost
// update shows up as a stored best below the known maximum.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
)

type submitRequest struct {
	Token string `json:"token"`
	Score int64  `json:"score"`
	Name  string `json:"name,omitempty"`
}

type playerResponse struct {
	Token     string `json:"token"`
	Name      string `json:"name,omitempty"`
	BestScore int64  `json:"best_score"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the leaderboard server")
	players := flag.Int("players", 10, "number of distinct player tokens")
	submissions := flag.Int("submissions", 200, "total submissions to send")
	workers := flag.Int("workers", 20, "concurrent submitters")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	client := &fasthttp.Client{
		MaxConnsPerHost:     100,
		ReadTimeout:         10 * time.Second,
		WriteTimeout:        10 * time.Second,
		MaxIdleConnDuration: 1 * time.Minute,
	}

	tokens := make([]string, *players)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("player-%d", i)
	}

	// sent tracks the maximum score handed to each token; the server must
	// agree with it afterwards no matter how the submissions interleaved.
	var mu sync.Mutex
	sent := make(map[string]int64, *players)

	start := time.Now()
	g := new(errgroup.Group)
	g.SetLimit(*workers)

	for i := 0; i < *submissions; i++ {
		token := tokens[rand.Intn(len(tokens))]
		score := rand.Int63n(100000)

		g.Go(func() error {
			if err := submit(client, *addr, token, score); err != nil {
				return err
			}
			mu.Lock()
			if score > sent[token] {
				sent[token] = score
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("submissions failed")
	}
	logger.Info().
		Int("submissions", *submissions).
		Int("players", *players).
		Dur("elapsed", time.Since(start)).
		Msg("all submissions sent")

	lost := 0
	for token, want := range sent {
		got, err := fetchBest(client, *addr, token)
		if err != nil {
			logger.Fatal().Err(err).Str("token", token).Msg("failed to fetch player")
		}
		if got != want {
			lost++
			logger.Error().
				Str("token", token).
				Int64("want", want).
				Int64("got", got).
				Msg("lost update detected")
		}
	}

	if lost > 0 {
		logger.Fatal().Int("lost", lost).Msg("max-merge invariant violated")
	}
	logger.Info().Msg("all stored bests match submitted maxima")
}

func submit(client *fasthttp.Client, addr, token string, score int64) error {
	body, err := json.Marshal(submitRequest{Token: token, Score: score})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(addr + "/api/v1/scores")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := client.Do(req, resp); err != nil {
		return fmt.Errorf("submit %s: %w", token, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("submit %s: unexpected status %d", token, resp.StatusCode())
	}
	return nil
}

func fetchBest(client *fasthttp.Client, addr, token string) (int64, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(addr + "/api/v1/players/" + token)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := client.Do(req, resp); err != nil {
		return 0, fmt.Errorf("fetch %s: %w", token, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return 0, fmt.Errorf("fetch %s: unexpected status %d", token, resp.StatusCode())
	}

	var player playerResponse
	if err := json.Unmarshal(resp.Body(), &player); err != nil {
		return 0, fmt.Errorf("fetch %s: %w", token, err)
	}
	return player.BestScore, nil
}
