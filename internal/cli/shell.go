package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/pathsocial/internal/logging"
	"github.com/dmitrijs2005/pathsocial/internal/notify"
	"github.com/dmitrijs2005/pathsocial/internal/store"
)

var errExit = errors.New("exit")

type Shell struct {
	store  *store.Store
	logger logging.Logger
	now    func() time.Time

	in         *bufio.Reader
	stdinIsTTY bool

	// mu serializes writes from the command loop and the event listener.
	mu  sync.Mutex
	out io.Writer
}

// NewShell creates a shell reading commands from in and writing to out.
// Passwords are read without echo only when in is the process's terminal.
func NewShell(st *store.Store, in io.Reader, out io.Writer, logger logging.Logger) *Shell {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Shell{
		store:      st,
		logger:     logger.With("component", "shell"),
		now:        time.Now,
		in:         bufio.NewReader(in),
		stdinIsTTY: in == os.Stdin,
		out:        out,
	}
}

// Run executes commands until exit, end of input or ctx is done. Change
// events from the store are reported while it runs.
func (s *Shell) Run(ctx context.Context) error {
	sub := s.store.Subscribe()
	defer s.store.Unsubscribe(sub)

	listenCtx, stopListening := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.listen(listenCtx, sub)
	}()
	defer func() {
		stopListening()
		wg.Wait()
	}()

	s.println("Welcome to pathsocial (type 'help' for commands)")
	s.warnLoadProblems()
	for {
		s.printf("ps %s> ", s.status())
		line, err := s.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.println()
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}

		if err := s.dispatch(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				s.println("Bye!")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			s.printErr(err)
		}
	}
}

// dispatch runs one command line.
func (s *Shell) dispatch(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "help", "?":
		s.help()
		return nil
	case "register":
		return s.register(ctx)
	case "login":
		return s.login(ctx, args)
	case "logout":
		return s.logout()
	case "whoami":
		return s.whoami()
	case "search":
		return s.search(args)
	case "friends":
		return s.friends()
	case "addfriend":
		return s.addFriend(ctx, args)
	case "share":
		return s.share(ctx, args)
	case "timeline", "tl":
		return s.timeline()
	case "profile":
		return s.profile(args)
	case "types":
		s.types()
		return nil
	case "stats":
		return s.stats()
	case "reset":
		return s.reset(ctx)
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("unknown command: %s (type 'help')", cmd)
	}
}

func (s *Shell) listen(ctx context.Context, sub *notify.Subscription[store.ChangeEvent]) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			s.println()
			s.println("* Data was changed in another window and has been reloaded.")
			if ev.SessionEnded {
				s.println("* Your account no longer exists. You have been logged out.")
			}
			s.logger.Debug(ctx, "change event shown", "session_ended", ev.SessionEnded)
		}
	}
}

func (s *Shell) warnLoadProblems() {
	status := s.store.LoadStatus()
	switch {
	case status.Source == store.LoadFailed:
		s.printf("Warning: the data file could not be loaded: %v\n", status.Err)
		s.println("Warning: starting with no data. The unreadable file will be kept as a backup on the next save.")
	case len(status.Report.Skipped) > 0:
		s.printf("Warning: %d damaged record(s) were skipped while loading (see 'stats').\n", len(status.Report.Skipped))
	}
}

func (s *Shell) status() string {
	if u, ok := s.store.CurrentUser(); ok {
		return "(" + u.Username + ")"
	}
	return "(guest)"
}

func (s *Shell) help() {
	if _, ok := s.store.CurrentUser(); ok {
		s.println("Available commands: whoami, search <q>, friends, addfriend <username>,")
		s.println("  share <type> <text> [-img path], timeline, profile [username], types,")
		s.println("  stats, reset, logout, exit")
		return
	}
	s.println("Available commands: register, login [username], search <q>, profile <username>,")
	s.println("  types, stats, reset, exit")
}

func (s *Shell) println(a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, a...)
}

func (s *Shell) printErr(err error) {
	s.println("Error:", err.Error())
}
