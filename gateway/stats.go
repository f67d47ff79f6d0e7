package gateway

import "sync"

// Stats counts how calls to the gateway were resolved.
type Stats struct {
	Calls            int `json:"calls"`
	Remote           int `json:"remote"`
	Placeholder      int `json:"placeholder"`
	Unauthenticated  int `json:"unauthenticated"`
	Failed           int `json:"failed"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Fallbacks returns the number of calls answered from the fallback pool.
func (s Stats) Fallbacks() int {
	return s.Unauthenticated + s.Failed
}

// statsCollector accumulates Stats in a thread-safe manner.
type statsCollector struct {
	mu    sync.Mutex
	stats Stats
}

func (sc *statsCollector) record(src Source, failed bool, resp *Response) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.stats.Calls++
	switch src {
	case SourceRemote:
		sc.stats.Remote++
	case SourcePlaceholder:
		sc.stats.Placeholder++
	case SourceFallback:
		if failed {
			sc.stats.Failed++
		} else {
			sc.stats.Unauthenticated++
		}
	}
	if resp != nil {
		sc.stats.PromptTokens += resp.PromptTokens
		sc.stats.CompletionTokens += resp.CompletionTokens
	}
}

func (sc *statsCollector) snapshot() Stats {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.stats
}
