package heos

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeHEOS is a loopback TCP server that answers each command line with
// the frames returned by handler.
type fakeHEOS struct {
	ln      net.Listener
	handler func(cmd string) []string

	mu       sync.Mutex
	commands []string
	conns    int
}

func newFakeHEOS(t *testing.T, handler func(cmd string) []string) *fakeHEOS {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeHEOS{ln: ln, handler: handler}
	go f.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fakeHEOS) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns++
		f.mu.Unlock()
		go f.handle(conn)
	}
}

func (f *fakeHEOS) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")

		f.mu.Lock()
		f.commands = append(f.commands, cmd)
		f.mu.Unlock()

		for _, frame := range f.handler(cmd) {
			if _, err := io.WriteString(conn, frame); err != nil {
				return
			}
		}
	}
}

func (f *fakeHEOS) hostPort() (string, int) {
	a := f.ln.Addr().(*net.TCPAddr)
	return a.IP.String(), a.Port
}

func (f *fakeHEOS) device(pid string) *Device {
	host, port := f.hostPort()
	d := NewDevice(host, pid)
	d.Port = port
	return d
}

func (f *fakeHEOS) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *fakeHEOS) connections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns
}

// frame builds one reply line.
func frame(command, result, message, payload string) string {
	s := fmt.Sprintf(`{"heos": {"command": %q, "result": %q, "message": %q}`, command, result, message)
	if payload != "" {
		s += `, "payload": ` + payload
	}
	return s + "}\r\n"
}

func splitCommand(cmd string) (path, query string) {
	path, query, _ = strings.Cut(strings.TrimPrefix(cmd, CommandPrefix), "?")
	return path, query
}

// speaker emulates a two-player system where player 1 leads group 10.
type speaker struct {
	host string

	mu     sync.Mutex
	volume int
	muted  bool
	state  string
	fail   map[string]string
}

func newSpeaker() *speaker {
	return &speaker{volume: 20, state: "stop", fail: map[string]string{}}
}

func (s *speaker) setMuted(on bool) {
	s.mu.Lock()
	s.muted = on
	s.mu.Unlock()
}

func (s *speaker) isMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *speaker) failWith(path, text string) {
	s.mu.Lock()
	s.fail[path] = text
	s.mu.Unlock()
}

func (s *speaker) level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *speaker) handle(cmd string) []string {
	path, query := splitCommand(cmd)
	attrs := ParseMessage(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if text, ok := s.fail[path]; ok {
		return []string{frame(path, "fail", "eid=2&text="+text+"&"+query, "")}
	}

	switch path {
	case "player/get_players":
		payload := fmt.Sprintf(`[
			{"name": "Kitchen", "pid": 1, "model": "HEOS 1", "ip": %q, "gid": 10},
			{"name": "Den", "pid": "2", "model": "HEOS 3", "ip": %q, "gid": "10"}
		]`, s.host, s.host)
		return []string{frame(path, "success", "", payload)}

	case "player/get_groups":
		payload := `[{"name": "Downstairs", "gid": 10, "players": [
			{"name": "Den", "pid": 2, "role": "member"},
			{"name": "Kitchen", "pid": 1, "role": "leader"}
		]}]`
		return []string{frame(path, "success", "", payload)}

	case "player/get_player_info":
		payload := fmt.Sprintf(`{"name": "Kitchen", "pid": %s, "model": "HEOS 1", "ip": %q}`, attrs.Get("pid"), s.host)
		return []string{frame(path, "success", query, payload)}

	case "player/get_volume", "group/get_volume":
		return []string{frame(path, "success", query+"&level="+strconv.Itoa(s.volume), "")}

	case "player/set_volume", "group/set_volume":
		s.volume, _ = attrs.Int("level")
		return []string{frame(path, "success", query, "")}

	case "player/get_mute", "group/get_mute":
		return []string{frame(path, "success", query+"&state="+onOff(s.muted), "")}

	case "player/set_mute", "group/set_mute":
		s.muted = attrs.Get("state") == "on"
		return []string{frame(path, "success", query, "")}

	case "player/toggle_mute", "group/toggle_mute":
		s.muted = !s.muted
		return []string{frame(path, "success", query, "")}

	case "player/get_play_state":
		return []string{frame(path, "success", query+"&state="+s.state, "")}

	case "player/set_play_state":
		s.state = attrs.Get("state")
		return []string{
			frame(path, "success", "command under process&"+query, ""),
			frame(path, "success", query, ""),
		}

	case "player/play_next", "player/play_previous":
		return []string{frame(path, "success", query, "")}

	case "player/get_now_playing_media":
		payload := `{"type": "song", "song": "Blue in Green", "album": "Kind of Blue", "artist": "Miles Davis", "mid": "42", "sid": 1024}`
		return []string{frame(path, "success", query, payload)}
	}

	return []string{frame(path, "fail", "eid=1&text=Unrecognized Command", "")}
}

// newSpeakerServer starts a fake whose players point back at itself.
func newSpeakerServer(t *testing.T) (*fakeHEOS, *speaker) {
	t.Helper()
	s := newSpeaker()
	f := newFakeHEOS(t, s.handle)
	host, _ := f.hostPort()
	s.mu.Lock()
	s.host = host
	s.mu.Unlock()
	return f, s
}
