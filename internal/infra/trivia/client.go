// Package trivia fetches questions from an Open Trivia DB compatible API.
package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"codequest-quiz-service/internal/domain"
	"codequest-quiz-service/internal/logging"
)

// DefaultCategories maps subject names to Open Trivia DB category ids.
var DefaultCategories = map[string]int{
	"General":     9,
	"Science":     17,
	"Computers":   18,
	"Mathematics": 19,
	"Sports":      21,
	"Geography":   22,
	"History":     23,
}

const (
	codeSuccess   = 0
	codeNoResults = 1
)

var responseCodeReasons = map[int]string{
	2: "invalid parameter",
	3: "token not found",
	4: "token empty",
	5: "rate limited",
}

// Options configures a Client. Zero values fall back to the public API defaults.
type Options struct {
	BaseURL    string
	Amount     int
	Type       string
	Categories map[string]int
	HTTPClient *http.Client
	// Rand shuffles answer options. Nil means a time-seeded source.
	Rand *rand.Rand
}

// Client implements app.QuestionSource against the trivia API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	amount     int
	qtype      string
	categories map[string]int

	mu  sync.Mutex
	rnd *rand.Rand
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://opentdb.com"
	}
	if opts.Amount <= 0 {
		opts.Amount = 10
	}
	if opts.Type == "" {
		opts.Type = "multiple"
	}
	if len(opts.Categories) == 0 {
		opts.Categories = DefaultCategories
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		amount:     opts.Amount,
		qtype:      opts.Type,
		categories: opts.Categories,
		rnd:        opts.Rand,
	}
}

type apiResponse struct {
	ResponseCode int         `json:"response_code"`
	Results      []apiResult `json:"results"`
}

type apiResult struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// CategoryFor resolves subject to a category id. Numeric subjects are used as is.
func (c *Client) CategoryFor(subject string) (int, bool) {
	if id, err := strconv.Atoi(subject); err == nil && id > 0 {
		return id, true
	}
	if id, ok := c.categories[subject]; ok {
		return id, true
	}
	for name, id := range c.categories {
		if strings.EqualFold(name, subject) {
			return id, true
		}
	}
	return 0, false
}

func (c *Client) FetchQuestions(ctx context.Context, subject string) ([]domain.Question, error) {
	log := logging.FromContext(ctx).WithField("component", "trivia").WithField("subject", subject)

	category, ok := c.CategoryFor(subject)
	if !ok {
		return nil, &domain.FetchError{Subject: subject, Reason: "unknown category"}
	}

	q := url.Values{}
	q.Set("amount", strconv.Itoa(c.amount))
	q.Set("category", strconv.Itoa(category))
	q.Set("type", c.qtype)
	endpoint := c.baseURL + "/api.php?" + q.Encode()

	log.Debugf("fetching questions from: %s", endpoint)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.FetchError{Subject: subject, Reason: "bad request", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("trivia request failed")
		return nil, &domain.FetchError{Subject: subject, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	log.Debugf("trivia response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Errorf("trivia request failed: status=%d, body=%s", resp.StatusCode, string(body))
		return nil, &domain.FetchError{
			Subject: subject,
			Reason:  fmt.Sprintf("HTTP %d", resp.StatusCode),
			Err:     fmt.Errorf("trivia status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.WithError(err).Error("failed to decode trivia response")
		return nil, &domain.FetchError{Subject: subject, Reason: "malformed response", Err: err}
	}

	switch out.ResponseCode {
	case codeSuccess:
	case codeNoResults:
		log.Info("trivia API has no questions for this category")
		return []domain.Question{}, nil
	default:
		reason, ok := responseCodeReasons[out.ResponseCode]
		if !ok {
			reason = fmt.Sprintf("response code %d", out.ResponseCode)
		}
		return nil, &domain.FetchError{Subject: subject, Reason: reason}
	}

	questions := make([]domain.Question, 0, len(out.Results))
	for i, r := range out.Results {
		question, err := c.toQuestion(i, r)
		if err != nil {
			log.WithError(err).Warn("dropping malformed question")
			continue
		}
		questions = append(questions, question)
	}
	log.Infof("fetched %d questions", len(questions))
	return questions, nil
}

func (c *Client) toQuestion(index int, r apiResult) (domain.Question, error) {
	prompt := html.UnescapeString(r.Question)
	if strings.TrimSpace(prompt) == "" {
		return domain.Question{}, &domain.ParseError{Index: index, Field: "question", Reason: "is missing"}
	}
	if r.CorrectAnswer == "" {
		return domain.Question{}, &domain.ParseError{Index: index, Field: "correct_answer", Reason: "is missing"}
	}
	if len(r.IncorrectAnswers) == 0 {
		return domain.Question{}, &domain.ParseError{Index: index, Field: "incorrect_answers", Reason: "needs at least one choice"}
	}

	correct := html.UnescapeString(r.CorrectAnswer)
	options := make([]string, 0, len(r.IncorrectAnswers)+1)
	for _, a := range r.IncorrectAnswers {
		options = append(options, html.UnescapeString(a))
	}
	options = append(options, correct)
	c.shuffle(options)

	category := html.UnescapeString(r.Category)
	if category == "" {
		category = domain.DefaultCategory
	}
	return domain.Question{
		Prompt:        prompt,
		Options:       options,
		CorrectOption: correct,
		Category:      category,
	}, nil
}

func (c *Client) shuffle(options []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
}
