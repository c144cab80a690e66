// Package trace is the trace-input collaborator spec.md §6 describes: it
// parses a workload trace into models.Request records, maps source process
// identifiers onto dense tenant ids, and returns the records sorted by
// (arrival ascending, user_id ascending) as the simulation driver requires.
//
// Three wire formats are recognized, auto-detected per line, matching
// _examples/original_source/src/util.cpp: a legacy 5-column CSV, an
// extended 6-column CSV with an explicit user_id, and raw blktrace text
// output. CSV timestamps are microseconds and are converted to the
// simulator's floating-point seconds.
package trace

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ssdfair/ssdsim/pkg/models"
)

const sectorSizeBytes = 512

// Load reads and parses the trace file at path, returning requests sorted
// by (arrival, user_id).
func Load(path string) ([]models.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads trace records from r. Exported separately from Load so tests
// and the `trace gen` round-trip can exercise it against an in-memory
// buffer.
func Parse(r io.Reader) ([]models.Request, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	processUserIDs := make(map[string]int)
	nextAutoUserID := 0
	var requests []models.Request

	lineNo := 0
	sawDataLine := false

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !sawDataLine && looksLikeHeader(trimmed) {
			continue
		}

		req, err := parseLine(trimmed, lineNo, processUserIDs, &nextAutoUserID)
		if err != nil {
			return nil, err
		}
		sawDataLine = true
		if req != nil {
			requests = append(requests, *req)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &IoError{Path: "<reader>", Err: err}
	}

	sort.SliceStable(requests, func(i, j int) bool {
		if requests[i].Arrival != requests[j].Arrival {
			return requests[i].Arrival < requests[j].Arrival
		}
		return requests[i].UserID < requests[j].UserID
	})
	return requests, nil
}

// looksLikeHeader reports whether the line's first comma-separated field is
// non-numeric, the same heuristic util::looks_like_header uses: a data line
// always starts with a numeric timestamp.
func looksLikeHeader(line string) bool {
	first := line
	if idx := strings.IndexByte(line, ','); idx >= 0 {
		first = line[:idx]
	}
	first = strings.TrimSpace(first)
	if first == "" {
		return true
	}
	_, err := strconv.ParseFloat(first, 64)
	return err != nil
}

func parseLine(line string, lineNo int, processUserIDs map[string]int, nextAutoUserID *int) (*models.Request, error) {
	tokens := splitAndTrimCSV(line)
	switch len(tokens) {
	case 6:
		return parseExtendedCSV(tokens, lineNo, processUserIDs)
	case 5:
		return parseLegacyCSV(tokens, lineNo, processUserIDs, nextAutoUserID)
	default:
		return parseBlktrace(line, lineNo, processUserIDs, nextAutoUserID)
	}
}

func splitAndTrimCSV(line string) []string {
	parts := strings.Split(line, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func parseTimestampSeconds(value string, lineNo int) (float64, error) {
	tsUs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, formatErrorf(lineNo, "failed to parse timestamp %q: %v", value, err)
	}
	return tsUs / 1_000_000.0, nil
}

func parseUserID(value string, lineNo int) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil {
		return 0, formatErrorf(lineNo, "failed to parse user_id %q: %v", value, err)
	}
	return id, nil
}

func parseSizeBytes(value string, lineNo int) (uint32, error) {
	size, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, formatErrorf(lineNo, "failed to parse size %q: %v", value, err)
	}
	return uint32(size), nil
}

func parseOp(value string, lineNo int) (models.OpKind, error) {
	op, ok := models.ParseOpKind(strings.ToLower(value))
	if !ok {
		return 0, formatErrorf(lineNo, "unknown op type %q", value)
	}
	return op, nil
}

// parseExtendedCSV parses "ts_us,process_id,user_id,op,addr,size".
func parseExtendedCSV(tokens []string, lineNo int, processUserIDs map[string]int) (*models.Request, error) {
	ts, err := parseTimestampSeconds(tokens[0], lineNo)
	if err != nil {
		return nil, err
	}
	processID := tokens[1]
	uid, err := parseUserID(tokens[2], lineNo)
	if err != nil {
		return nil, err
	}
	op, err := parseOp(tokens[3], lineNo)
	if err != nil {
		return nil, err
	}
	size, err := parseSizeBytes(tokens[5], lineNo)
	if err != nil {
		return nil, err
	}

	if existing, seen := processUserIDs[processID]; seen && existing != uid {
		return nil, formatErrorf(lineNo, "process %q has conflicting user_id values (%d vs %d)", processID, existing, uid)
	}
	processUserIDs[processID] = uid

	return &models.Request{UserID: uid, Op: op, Arrival: ts, SizeBytes: size}, nil
}

// parseLegacyCSV parses "ts_us,process_id,op,addr,size", auto-assigning a
// dense user id per distinct process_id in first-seen order.
func parseLegacyCSV(tokens []string, lineNo int, processUserIDs map[string]int, nextAutoUserID *int) (*models.Request, error) {
	ts, err := parseTimestampSeconds(tokens[0], lineNo)
	if err != nil {
		return nil, err
	}
	processID := tokens[1]
	op, err := parseOp(tokens[2], lineNo)
	if err != nil {
		return nil, err
	}
	size, err := parseSizeBytes(tokens[4], lineNo)
	if err != nil {
		return nil, err
	}

	uid, seen := processUserIDs[processID]
	if !seen {
		uid = *nextAutoUserID
		processUserIDs[processID] = uid
		*nextAutoUserID++
	}

	return &models.Request{UserID: uid, Op: op, Arrival: ts, SizeBytes: size}, nil
}

// parseBlktrace parses a single line of blktrace-style text output. Only
// queue ("Q") actions produce a request; other actions are recognized and
// silently skipped.
func parseBlktrace(line string, lineNo int, processUserIDs map[string]int, nextAutoUserID *int) (*models.Request, error) {
	fields := strings.Fields(line)
	if len(fields) < 6 || !strings.Contains(fields[0], ",") {
		return nil, formatErrorf(lineNo, "expected CSV or blktrace format")
	}

	// fields: device cpu seq ts pid action rwbs [lba + length] [cmd]
	tsSeconds, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return nil, formatErrorf(lineNo, "expected CSV or blktrace format")
	}
	pid := fields[4]
	action := fields[5]

	if action != "Q" {
		return nil, nil
	}
	if len(fields) < 9 {
		return nil, formatErrorf(lineNo, "incomplete blktrace data for queue event")
	}
	rwbs := fields[6]
	lba := fields[7]
	plus := fields[8]
	_ = lba
	if plus != "+" {
		return nil, formatErrorf(lineNo, "expected '+' before sector count")
	}
	if len(fields) < 10 {
		return nil, formatErrorf(lineNo, "incomplete blktrace data for queue event")
	}
	sectors, err := strconv.ParseUint(fields[9], 10, 64)
	if err != nil {
		return nil, formatErrorf(lineNo, "invalid sector count: %v", err)
	}
	bytes64 := sectors * sectorSizeBytes
	if bytes64 > (1<<32 - 1) {
		return nil, formatErrorf(lineNo, "request size exceeds uint32")
	}

	processLabel := pid
	if len(fields) > 10 {
		cmd := strings.Trim(fields[10], "[]")
		if cmd != "" {
			processLabel = pid + ":" + cmd
		}
	}

	uid, seen := processUserIDs[processLabel]
	if !seen {
		uid = *nextAutoUserID
		processUserIDs[processLabel] = uid
		*nextAutoUserID++
	}

	op := models.OpRead
	if strings.Contains(strings.ToUpper(rwbs), "W") {
		op = models.OpWrite
	}

	return &models.Request{UserID: uid, Op: op, Arrival: tsSeconds, SizeBytes: uint32(bytes64)}, nil
}
