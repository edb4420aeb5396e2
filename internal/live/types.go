package live

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Topic names a stream of live updates.
type Topic string

// Topics published by the sync jobs.
const (
	TopicPrices Topic = "prices"
	TopicGold   Topic = "gold"
	TopicKills  Topic = "kills"
	TopicGuilds Topic = "guilds"
	TopicSync   Topic = "sync"
)

// Message types.
const (
	TypeEvent         = "event"
	TypeWelcome       = "welcome"
	TypeSubscriptions = "subscriptions"
	TypeError         = "error"
)

// Errors
var (
	ErrUnknownTopic = errors.New("unknown topic")
	ErrHubClosed    = errors.New("hub closed")
)

// AllTopics returns every topic in a stable order.
func AllTopics() []Topic {
	return []Topic{TopicPrices, TopicGold, TopicKills, TopicGuilds, TopicSync}
}

// Valid reports whether t is a known topic.
func (t Topic) Valid() bool {
	switch t {
	case TopicPrices, TopicGold, TopicKills, TopicGuilds, TopicSync:
		return true
	}
	return false
}

// ParseTopics parses a comma-separated topic list. An empty list selects
// every topic.
func ParseTopics(s string) ([]Topic, error) {
	if strings.TrimSpace(s) == "" {
		return AllTopics(), nil
	}
	return normalizeTopics(strings.Split(s, ","))
}

func normalizeTopics(names []string) ([]Topic, error) {
	seen := make(map[Topic]bool, len(names))
	topics := make([]Topic, 0, len(names))
	for _, name := range names {
		t := Topic(strings.ToLower(strings.TrimSpace(name)))
		if t == "" || seen[t] {
			continue
		}
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, name)
		}
		seen[t] = true
		topics = append(topics, t)
	}
	return topics, nil
}

// Message is the frame written to clients.
type Message struct {
	Type   string    `json:"type"`
	Topic  Topic     `json:"topic,omitempty"`
	Data   any       `json:"data,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

// command is a client request to change its subscriptions.
type command struct {
	Action string   `json:"action"` // "subscribe", "unsubscribe"
	Topics []string `json:"topics"`
}
