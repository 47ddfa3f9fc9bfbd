// Command callreplay replays a scripted or recorded sales call against a
// running callcoach server over the call websocket and reports the
// coaching decisions it receives.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/callcoach/internal/audio"
	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/protocol"
)

type options struct {
	baseURL        string
	scriptPath     string
	salespersonWAV string
	clientWAV      string
	company        string
	chunkMS        int
	realtime       float64
	startDelay     time.Duration
	frameTimeout   time.Duration
	verbose        bool
}

type line struct {
	Role conversation.Speaker
	Text string
}

type createCallRequest struct {
	ClientCompany string `json:"client_company,omitempty"`
}

type createCallResponse struct {
	SessionID string `json:"session_id"`
}

// wsEnvelope is the union of the server frames the replay cares about.
type wsEnvelope struct {
	Type      string          `json:"type"`
	Reason    string          `json:"reason,omitempty"`
	Score     int             `json:"score,omitempty"`
	Duplicate string          `json:"duplicate_check,omitempty"`
	Title     string          `json:"title,omitempty"`
	Text      string          `json:"text,omitempty"`
	Code      string          `json:"code,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	Stats     json.RawMessage `json:"stats,omitempty"`
}

type report struct {
	frames   int
	insights []string
	reasons  map[string]int
	stats    json.RawMessage
}

var defaultScript = []line{
	{conversation.SpeakerSalesperson, "Bonjour, merci de prendre le temps. Comment gérez-vous la prospection actuellement ?"},
	{conversation.SpeakerClient, "Honnêtement on a un vrai problème, chaque commercial perd deux heures par jour à remplir le CRM après les appels."},
	{conversation.SpeakerSalesperson, "Deux heures par jour, ça représente combien pour l'équipe sur un mois ?"},
	{conversation.SpeakerClient, "On est douze, donc plusieurs milliers d'euros perdus, et on rate des relances importantes."},
	{conversation.SpeakerSalesperson, "Qui décide de ce type de projet chez vous, et avec quel budget ?"},
	{conversation.SpeakerClient, "C'est moi avec le directeur commercial, mais franchement je trouve ça un peu cher pour le moment."},
	{conversation.SpeakerSalesperson, "Je comprends. Est-ce qu'une démo la semaine prochaine avec votre directeur vous aiderait ?"},
	{conversation.SpeakerClient, "Oui, ça peut être intéressant, envoyez-moi un créneau."},
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "callreplay: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "callreplay: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var cfg options
	var startDelayMS, frameTimeoutMS int

	fs := flag.NewFlagSet("callreplay", flag.ContinueOnError)
	fs.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "callcoach base URL")
	fs.StringVar(&cfg.scriptPath, "script", "", "transcript file with COMMERCIAL:/CLIENT: lines (default: built-in call)")
	fs.StringVar(&cfg.salespersonWAV, "salesperson-wav", "", "salesperson channel recording (PCM16 WAV)")
	fs.StringVar(&cfg.clientWAV, "client-wav", "", "client channel recording (PCM16 WAV)")
	fs.StringVar(&cfg.company, "company", "Replay SAS", "client_company for the synthetic call")
	fs.IntVar(&cfg.chunkMS, "chunk-ms", 3000, "audio chunk size in milliseconds")
	fs.Float64Var(&cfg.realtime, "realtime", 1.0, "chunk pacing multiplier (1.0=realtime, 2.0=2x)")
	fs.IntVar(&startDelayMS, "start-delay-ms", 200, "delay before the first frame in milliseconds")
	fs.IntVar(&frameTimeoutMS, "frame-timeout-ms", 30000, "timeout waiting for a decision per frame in milliseconds")
	fs.BoolVar(&cfg.verbose, "verbose", true, "print replay progress")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if (cfg.salespersonWAV == "") != (cfg.clientWAV == "") {
		return options{}, fmt.Errorf("salesperson-wav and client-wav must be set together")
	}
	if cfg.salespersonWAV != "" && cfg.scriptPath != "" {
		return options{}, fmt.Errorf("script and wav replay are mutually exclusive")
	}
	if cfg.chunkMS < 100 || cfg.chunkMS > 30000 {
		return options{}, fmt.Errorf("chunk-ms must be in [100,30000]")
	}
	if cfg.realtime <= 0 {
		return options{}, fmt.Errorf("realtime must be > 0")
	}
	if startDelayMS < 0 {
		startDelayMS = 0
	}
	if frameTimeoutMS < 1000 {
		frameTimeoutMS = 1000
	}
	cfg.startDelay = time.Duration(startDelayMS) * time.Millisecond
	cfg.frameTimeout = time.Duration(frameTimeoutMS) * time.Millisecond
	return cfg, nil
}

func run(cfg options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	// Load inputs before opening a call so bad files never leave a dangling session.
	var (
		script []line
		tracks [2][]int16
		rate   int
	)
	if cfg.salespersonWAV != "" {
		var err error
		tracks, rate, err = loadTracks(cfg.salespersonWAV, cfg.clientWAV)
		if err != nil {
			return err
		}
	} else {
		script = defaultScript
		if cfg.scriptPath != "" {
			f, err := os.Open(cfg.scriptPath)
			if err != nil {
				return fmt.Errorf("open script: %w", err)
			}
			script, err = parseScript(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("parse script: %w", err)
			}
		}
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	sessionID, err := createCall(ctx, httpClient, cfg)
	if err != nil {
		return fmt.Errorf("create call: %w", err)
	}
	if cfg.verbose {
		fmt.Printf("callreplay: session=%s\n", sessionID)
	}

	wsURL, err := wsURLForSession(cfg.baseURL, sessionID)
	if err != nil {
		return fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	if cfg.startDelay > 0 {
		time.Sleep(cfg.startDelay)
	}

	events := make(chan wsEnvelope, 64)
	readErrCh := make(chan error, 1)
	go readLoop(conn, events, readErrCh)

	rep := &report{reasons: map[string]int{}}
	if script != nil {
		err = replayScript(conn, script, events, readErrCh, cfg, rep)
	} else {
		err = replayAudio(conn, tracks, rate, events, readErrCh, cfg, rep)
	}
	if err != nil {
		return err
	}

	if err := conn.WriteJSON(protocol.Control{Type: protocol.TypeControl, Action: protocol.ActionEnd}); err != nil {
		return fmt.Errorf("send end: %w", err)
	}
	if err := awaitFrame(events, readErrCh, cfg.frameTimeout, rep, cfg.verbose, string(protocol.TypeSessionEnded)); err != nil {
		return fmt.Errorf("await session_ended: %w", err)
	}
	printReport(os.Stdout, rep)
	return nil
}

func replayScript(conn *websocket.Conn, script []line, events <-chan wsEnvelope, readErrCh <-chan error, cfg options, rep *report) error {
	for i, l := range script {
		if cfg.verbose {
			fmt.Printf("callreplay: line %d/%d %s\n", i+1, len(script), conversation.Message{Role: l.Role, Content: l.Text}.Line())
		}
		msg := protocol.Utterance{
			Type:     protocol.TypeUtterance,
			Role:     string(l.Role),
			Text:     l.Text,
			Evaluate: true,
		}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("line %d send: %w", i+1, err)
		}
		rep.frames++
		if err := awaitFrame(events, readErrCh, cfg.frameTimeout, rep, cfg.verbose, string(protocol.TypeDecision)); err != nil {
			return fmt.Errorf("line %d await decision: %w", i+1, err)
		}
	}
	return nil
}

func replayAudio(conn *websocket.Conn, tracks [2][]int16, rate int, events <-chan wsEnvelope, readErrCh <-chan error, cfg options, rep *report) error {
	windows := splitChunks(tracks[0], tracks[1], rate*cfg.chunkMS/1000)
	for i, w := range windows {
		msg := protocol.AudioChunk{
			Type:              protocol.TypeAudioChunk,
			Seq:               i + 1,
			SalespersonBase64: base64.StdEncoding.EncodeToString(audio.EncodePCM16LE(w[0])),
			ClientBase64:      base64.StdEncoding.EncodeToString(audio.EncodePCM16LE(w[1])),
			SampleRate:        rate,
		}
		if cfg.verbose {
			fmt.Printf("callreplay: chunk %d/%d samples=%d\n", i+1, len(windows), len(w[0]))
		}
		started := time.Now()
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("chunk %d send: %w", i+1, err)
		}
		rep.frames++
		if err := awaitFrame(events, readErrCh, cfg.frameTimeout, rep, cfg.verbose, string(protocol.TypeDecision)); err != nil {
			return fmt.Errorf("chunk %d await decision: %w", i+1, err)
		}

		pace := time.Duration(float64(time.Duration(len(w[0]))*time.Second/time.Duration(rate)) / cfg.realtime)
		if wait := pace - time.Since(started); wait > 0 {
			time.Sleep(wait)
		}
	}
	return nil
}

// splitChunks cuts both channels into aligned windows of size samples.
// The shorter channel is padded with silence.
func splitChunks(salesperson, client []int16, size int) [][2][]int16 {
	if size <= 0 {
		size = audio.DefaultSampleRate
	}
	total := max(len(salesperson), len(client))
	var out [][2][]int16
	for off := 0; off < total; off += size {
		end := min(off+size, total)
		out = append(out, [2][]int16{window(salesperson, off, end), window(client, off, end)})
	}
	return out
}

func window(samples []int16, start, end int) []int16 {
	out := make([]int16, end-start)
	if start < len(samples) {
		copy(out, samples[start:min(end, len(samples))])
	}
	return out
}

func loadTracks(salespersonPath, clientPath string) ([2][]int16, int, error) {
	var tracks [2][]int16
	rates := [2]int{}
	for i, path := range []string{salespersonPath, clientPath} {
		data, err := os.ReadFile(path)
		if err != nil {
			return tracks, 0, fmt.Errorf("read %s: %w", path, err)
		}
		tracks[i], rates[i], err = audio.DecodeWAV(data)
		if err != nil {
			return tracks, 0, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if rates[0] != rates[1] {
		return tracks, 0, fmt.Errorf("sample rate mismatch: %d vs %d", rates[0], rates[1])
	}
	return tracks, rates[0], nil
}

// parseScript reads "ROLE: text" lines. Blank lines and lines starting
// with # are ignored.
func parseScript(r io.Reader) ([]line, error) {
	var out []line
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		label, text, ok := strings.Cut(raw, ":")
		if !ok || strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("line %d: expected ROLE: text", n)
		}
		role, err := conversation.ParseSpeaker(label)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, line{Role: role, Text: strings.TrimSpace(text)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("script has no lines")
	}
	return out, nil
}

func createCall(ctx context.Context, client *http.Client, cfg options) (string, error) {
	payload, err := json.Marshal(createCallRequest{ClientCompany: cfg.company})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/v1/calls", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out createCallResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.SessionID) == "" {
		return "", fmt.Errorf("missing session_id in response")
	}
	return out.SessionID, nil
}

func wsURLForSession(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/calls/" + url.PathEscape(sessionID) + "/ws"
	return u.String(), nil
}

func readLoop(conn *websocket.Conn, events chan<- wsEnvelope, readErrCh chan<- error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case readErrCh <- err:
			default:
			}
			return
		}
		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		events <- env
	}
}

// awaitFrame consumes frames until one of type want (or an error frame)
// arrives, folding every frame into rep.
func awaitFrame(events <-chan wsEnvelope, readErrCh <-chan error, timeout time.Duration, rep *report, verbose bool, want string) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case env := <-events:
			done, err := rep.record(env, want)
			if verbose {
				printFrame(env)
			}
			if done || err != nil {
				return err
			}
		case err := <-readErrCh:
			return err
		case <-timer.C:
			return fmt.Errorf("timeout after %s", timeout)
		}
	}
}

func (r *report) record(env wsEnvelope, want string) (bool, error) {
	switch env.Type {
	case string(protocol.TypeDecision):
		r.reasons[env.Reason]++
	case string(protocol.TypeInsight):
		r.insights = append(r.insights, env.Text)
	case string(protocol.TypeSessionEnded):
		r.stats = env.Stats
	case string(protocol.TypeError):
		if env.Code == "session_not_found" {
			return true, fmt.Errorf("server error %s: %s", env.Code, env.Detail)
		}
		r.reasons["error:"+env.Code]++
		return want != string(protocol.TypeSessionEnded), nil
	}
	return env.Type == want, nil
}

func printFrame(env wsEnvelope) {
	switch env.Type {
	case string(protocol.TypeTranscript):
		fmt.Printf("  transcript %q\n", env.Text)
	case string(protocol.TypeDecision):
		if env.Duplicate != "" {
			fmt.Printf("  decision %s score=%d check=%s\n", env.Reason, env.Score, env.Duplicate)
			return
		}
		fmt.Printf("  decision %s score=%d\n", env.Reason, env.Score)
	case string(protocol.TypeInsight):
		fmt.Printf("  insight  %s\n", env.Text)
	case string(protocol.TypeError):
		fmt.Fprintf(os.Stderr, "  error %s: %s\n", env.Code, env.Detail)
	}
}

func printReport(w io.Writer, rep *report) {
	fmt.Fprintf(w, "callreplay: frames=%d insights=%d\n", rep.frames, len(rep.insights))
	reasons := make([]string, 0, len(rep.reasons))
	for reason := range rep.reasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  %-20s %d\n", reason, rep.reasons[reason])
	}
	for i, text := range rep.insights {
		fmt.Fprintf(w, "  #%d %s\n", i+1, text)
	}
	if len(rep.stats) > 0 {
		fmt.Fprintf(w, "  stats %s\n", rep.stats)
	}
}
