// Package llm provides answer generation behind an ordered fallback chain of
// providers. Every provider receives the same (system, user) message pair and
// differs only in transport and model.
package llm

import (
	"context"
	"log"
	"strings"
)

// CannedAnswer is returned when every provider in the chain has failed.
const CannedAnswer = "I don't know based on ingested data."

// Provider is one rung of the fallback ladder. A provider makes exactly one
// attempt per call; it must not retry internally.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Gateway tries its providers in fixed priority order and uses the first
// non-empty completion. It never returns an error: when the whole chain fails
// the caller gets the canned sentinel.
type Gateway struct {
	providers []Provider
}

func NewGateway(providers ...Provider) *Gateway {
	return &Gateway{providers: providers}
}

func (g *Gateway) Complete(ctx context.Context, system, user string) string {
	for _, p := range g.providers {
		answer, err := p.Complete(ctx, system, user)
		if err != nil {
			log.Printf("Completion provider %s failed, falling back: %v", p.Name(), err)
			continue
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			log.Printf("Completion provider %s returned empty content, falling back", p.Name())
			continue
		}
		return answer
	}
	log.Println("All completion providers failed, returning canned answer")
	return CannedAnswer
}
