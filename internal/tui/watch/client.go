package watch

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattjoyce/parbreak/internal/events"
)

// --- Message types ---

type eventMsg events.Event

type healthMsg struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	QueueDepth    int    `json:"queue_depth"`
	JobsTotal     int    `json:"jobs_total"`
	Remaining     int    `json:"remaining"`
}

type jobsMsg []jobView

type jobView struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type errMsg error

// --- Commands ---

func (m Model) authedRequest(path string) (*http.Request, error) {
	req, err := http.NewRequest("GET", m.apiURL+path, nil)
	if err != nil {
		return nil, err
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	return req, nil
}

// subscribeToEvents follows the SSE /events stream and feeds the hub channel
// until the connection drops.
func (m Model) subscribeToEvents() tea.Cmd {
	return func() tea.Msg {
		req, err := m.authedRequest("/events")
		if err != nil {
			return errMsg(err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return errMsg(err)
		}
		defer resp.Body.Close()

		var current events.Event
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if len(current.Data) > 0 {
					m.hubEvents <- current
					current = events.Event{}
				}
			case strings.HasPrefix(line, "event: "):
				current.Type = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				current.Data = []byte(strings.TrimPrefix(line, "data: "))
				current.At = time.Now()
			}
		}
		return nil
	}
}

func (m Model) receiveNextEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-m.hubEvents)
	}
}

func (m Model) fetchHealth() tea.Msg {
	req, err := m.authedRequest("/healthz")
	if err != nil {
		return errMsg(err)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return errMsg(err)
	}
	defer resp.Body.Close()

	var h healthMsg
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return errMsg(err)
	}
	return h
}

func (m Model) fetchJobs() tea.Msg {
	req, err := m.authedRequest("/jobs")
	if err != nil {
		return errMsg(err)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return errMsg(err)
	}
	defer resp.Body.Close()

	var jobs jobsMsg
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return errMsg(err)
	}
	return jobs
}
