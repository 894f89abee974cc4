package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// Record is one line of a check-in log. Field names follow the
// check_in_records table so files and database rows convert one to one.
type Record struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
}

// RecordFromEvent converts an event to its stored form.
func RecordFromEvent(e model.SleepEvent) Record {
	return Record{
		ID:        e.ID,
		UserID:    e.UserID,
		Timestamp: e.TimestampMs(),
		Type:      string(e.Kind),
	}
}

// Event converts the record back to a SleepEvent. Unknown types are passed
// through untouched; the reconciler decides what to do with them.
func (r Record) Event() model.SleepEvent {
	return model.SleepEvent{
		ID:        r.ID,
		UserID:    r.UserID,
		Timestamp: time.UnixMilli(r.Timestamp),
		Kind:      model.EventKind(r.Type),
	}
}

// MarshalRecord encodes e as a single JSONL line without the trailing newline.
func MarshalRecord(e model.SleepEvent) ([]byte, error) {
	return sonic.Marshal(RecordFromEvent(e))
}

// Parser decodes check-in log files.
type Parser struct {
	concurrency int
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File   string
	Events []model.SleepEvent
	Error  error
}

// NewParser creates a new Parser instance.
func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{concurrency: concurrency}
}

// ParseFile reads every valid record from the JSONL file at path.
func (p *Parser) ParseFile(path string) ([]model.SleepEvent, error) {
	util.LogDebugf("Start parsing file: %s", path)

	file, err := os.Open(path)
	if err != nil {
		util.LogDebugf("Failed to open file: %s - %v", path, err)
		return nil, err
	}
	defer file.Close()

	return p.ParseReader(file, path)
}

// ParseReader decodes JSONL records from r. Malformed lines and records
// without an id or timestamp are skipped; source only labels log output.
func (p *Parser) ParseReader(r io.Reader, source string) ([]model.SleepEvent, error) {
	var events []model.SleepEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := sonic.Unmarshal(line, &rec); err != nil {
			util.LogDebugf("Skip invalid JSON line %s:%d - %v", source, lineCount, err)
			continue
		}
		if rec.ID == "" || rec.Timestamp <= 0 {
			util.LogDebugf("Skip incomplete record %s:%d", source, lineCount)
			continue
		}
		events = append(events, rec.Event())
	}

	if err := scanner.Err(); err != nil {
		util.LogDebugf("Error scanning file: %s - %v", source, err)
		return nil, fmt.Errorf("scan %s: %w", source, err)
	}

	return events, nil
}

// ParseFiles parses multiple files concurrently and returns a channel of ParseResult.
func (p *Parser) ParseFiles(files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	util.LogDebugf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency)

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fileStart := time.Now()
			events, err := p.ParseFile(f)
			if err != nil {
				util.LogDebugf("File parsing failed: %s, duration %v - %v", f, time.Since(fileStart), err)
			}

			results <- ParseResult{
				File:   f,
				Events: events,
				Error:  err,
			}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebugf("Concurrent parsing finished, total duration: %v", time.Since(start))
	}()

	return results
}

// Collect drains ParseFiles into a single slice. The first file error is
// returned after all files have been read.
func (p *Parser) Collect(files []string) ([]model.SleepEvent, error) {
	var all []model.SleepEvent
	var firstErr error
	for res := range p.ParseFiles(files) {
		if res.Error != nil {
			if firstErr == nil {
				firstErr = res.Error
			}
			continue
		}
		all = append(all, res.Events...)
	}
	return all, firstErr
}
