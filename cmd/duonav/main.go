package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/justyntemme/duonav/internal/app"
	"github.com/justyntemme/duonav/internal/config"
	"github.com/justyntemme/duonav/internal/debug"
	"github.com/justyntemme/duonav/internal/history"
	"github.com/justyntemme/duonav/internal/mount"
	"github.com/justyntemme/duonav/internal/network"
	"github.com/justyntemme/duonav/internal/store"
)

const usage = `usage: duonav [-debug] [-debug-categories LIST] [-config file] <command> [args]

commands:
  history <left|right> [list|nav PATH|back|forward|up|home|jump PATH|clear]
  filter <left|right> [-remove] [QUERY]
  discover [-window 10s]
  shares HOST
  mount [-panel left|right] URL|HOST
  volumes
  watch
  auth HOST | auth save HOST USER (password on stdin) | auth delete HOST
  prefs [list [PREFIX] | delete KEY]
  config [init | set-root DIR | set-types TYPE,...]
`

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup happens before exiting.
func run() int {
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugCats := flag.String("debug-categories", "", "Comma-separated debug categories, or all / none")
	configPath := flag.String("config", "", "Config file (default ~/.config/duonav/config.json)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *debugFlag || *debugCats != "" {
		if !debug.Enabled {
			fmt.Fprintln(os.Stderr, "warning: debug logging needs a build with -tags debug")
		}
		spec := *debugCats
		if spec == "" {
			spec = "all"
		}
		debug.Configure(spec)
		debug.Log(debug.APP, "debug categories: %v", debug.ListEnabled())
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	cfgMgr := config.NewManager()
	if *configPath != "" {
		cfgMgr = config.NewManagerAt(*configPath)
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Config: using defaults: %v", err)
	}
	if err := cfgMgr.ParseError(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s is invalid, using defaults: %v\n", cfgMgr.Path(), err)
	}
	cfg := cfgMgr.Get()

	db := store.NewDB()
	if err := db.Open(cfg.Store.Path); err != nil {
		log.Printf("Store: %v; history will not be saved", err)
		if err := db.Open(":memory:"); err != nil {
			log.Printf("Store: %v", err)
			return 1
		}
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	creds := network.Keyring{}
	a := app.New(app.Options{Config: cfg, Prefs: db, Credentials: creds})
	defer a.Close()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	var err error
	switch cmd {
	case "history":
		err = runHistory(a, args)
	case "filter":
		err = runFilter(a, args)
	case "discover":
		err = runDiscover(ctx, a, args)
	case "shares":
		err = runShares(ctx, a, args)
	case "mount":
		err = runMount(ctx, a, args)
	case "volumes":
		err = runVolumes(a)
	case "watch":
		err = runWatch(ctx, a)
	case "auth":
		err = runAuth(creds, args, os.Stdin)
	case "prefs":
		err = runPrefs(db, args)
	case "config":
		err = runConfig(cfgMgr, args)
	default:
		flag.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "duonav %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func parseSide(s string) (history.Side, error) {
	switch strings.ToLower(s) {
	case "left", "l":
		return history.Left, nil
	case "right", "r":
		return history.Right, nil
	}
	return "", fmt.Errorf("unknown panel %q", s)
}

func runHistory(a *app.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing panel")
	}
	side, err := parseSide(args[0])
	if err != nil {
		return err
	}
	p := a.Panel(side)

	op := "list"
	if len(args) > 1 {
		op = args[1]
	}
	arg := ""
	if len(args) > 2 {
		arg = args[2]
	}

	switch op {
	case "list":
	case "nav":
		if p.Navigate(arg) == "" {
			return fmt.Errorf("cannot navigate to %q", arg)
		}
	case "back":
		if _, ok := p.GoBack(); !ok {
			return fmt.Errorf("no earlier location")
		}
	case "forward":
		if _, ok := p.GoForward(); !ok {
			return fmt.Errorf("no later location")
		}
	case "up":
		if _, ok := p.GoUp(); !ok {
			return fmt.Errorf("no parent directory")
		}
	case "home":
		if p.GoHome() == "" {
			return fmt.Errorf("no home directory")
		}
	case "jump":
		if !p.JumpTo(arg) {
			return fmt.Errorf("%q is not in history", arg)
		}
	case "clear":
		p.History.Clear()
	default:
		return fmt.Errorf("unknown history command %q", op)
	}

	printHistory(p)
	return nil
}

func printHistory(p *app.PanelController) {
	entries := p.History.Entries()
	cursor := p.History.Cursor()
	if len(entries) == 0 {
		fmt.Println("(empty)")
		return
	}
	for i, e := range entries {
		mark := "  "
		if i == cursor {
			mark = "> "
		}
		fmt.Printf("%s%-5s %s\n", mark, humanize.Ordinal(i+1), e)
	}
	back, forward := p.Menus()
	fmt.Printf("back: %s, forward: %s\n",
		english.Plural(len(back), "entry", "entries"),
		english.Plural(len(forward), "entry", "entries"))
}

func runFilter(a *app.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing panel")
	}
	side, err := parseSide(args[0])
	if err != nil {
		return err
	}
	fset := flag.NewFlagSet("filter", flag.ContinueOnError)
	remove := fset.Bool("remove", false, "Forget QUERY instead of recording it")
	if err := fset.Parse(args[1:]); err != nil {
		return err
	}

	p := a.Panel(side)
	if q := strings.Join(fset.Args(), " "); q != "" {
		if *remove {
			p.Filters.Remove(q)
		} else {
			p.ApplyFilter(q)
		}
	}
	for _, q := range p.Filters.Entries() {
		fmt.Println(q)
	}
	return nil
}

func runDiscover(ctx context.Context, a *app.App, args []string) error {
	fset := flag.NewFlagSet("discover", flag.ContinueOnError)
	window := fset.Duration("window", 0, "How long to scan (default from config)")
	if err := fset.Parse(args); err != nil {
		return err
	}

	start := time.Now()
	a.Neighborhood.Scan(*window)
	printed := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			a.Neighborhood.StopScan()
		case <-a.Neighborhood.Changes():
		}
		hosts := a.Neighborhood.Hosts()
		for _, h := range hosts {
			if printed[h.HostName] {
				continue
			}
			printed[h.HostName] = true
			fmt.Printf("%-24s %-28s %s\n", h.Name, h.MountURL(), strings.Join(h.Addresses, ", "))
		}
		if !a.Neighborhood.IsScanning() {
			fmt.Printf("%s in %s\n", english.Plural(len(hosts), "host", ""), time.Since(start).Round(time.Millisecond))
			return nil
		}
	}
}

func runShares(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: shares HOST")
	}
	shares := a.Neighborhood.Shares(ctx, hostArg(args[0]))
	for _, s := range shares {
		fmt.Printf("%-24s %s\n", s.Name, s.URL)
	}
	fmt.Println(english.Plural(len(shares), "share", ""))
	return nil
}

// hostArg turns a host name typed on the command line into an SMB host.
func hostArg(name string) network.Host {
	return network.NewHost(name, name, nil, "_smb._tcp", 445)
}

func runMount(ctx context.Context, a *app.App, args []string) error {
	fset := flag.NewFlagSet("mount", flag.ContinueOnError)
	panel := fset.String("panel", "left", "Panel to move onto the share")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: mount [-panel left|right] URL|HOST")
	}
	side, err := parseSide(*panel)
	if err != nil {
		return err
	}

	target := fset.Arg(0)
	var res mount.Result
	if strings.Contains(target, "://") {
		res, err = a.Mounts.OpenShare(ctx, a.Panel(side), target)
	} else {
		res, err = a.Mounts.OpenHost(ctx, a.Panel(side), hostArg(target))
	}
	if errors.Is(err, mount.ErrNotHandled) {
		fmt.Println("not an smb:// or afp:// share, opened with the system handler")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", res.Path, res.Source)
	return nil
}

func runVolumes(a *app.App) error {
	vols := a.Mounts.Volumes().Added(nil)
	for _, v := range vols {
		fmt.Printf("%-24s %-10s %s\n", v.Name, v.FSType, v.Path)
	}
	fmt.Println(english.Plural(len(vols), "remote volume", ""))
	return nil
}

func runWatch(ctx context.Context, a *app.App) error {
	w, err := a.Mounts.WatchVolumes(0)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Printf("watching %s\n", a.Mounts.Root())
	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-w.Notify():
			now := time.Now().Format(time.TimeOnly)
			for _, v := range change.Added {
				fmt.Printf("%s + %s (%s)\n", now, v.Path, v.FSType)
			}
			for _, v := range change.Removed {
				fmt.Printf("%s - %s\n", now, v.Path)
			}
		}
	}
}

func runAuth(creds network.CredentialStore, args []string, stdin io.Reader) error {
	switch {
	case len(args) == 1:
		c, ok, err := creds.Load(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("no credentials for %s\n", args[0])
			return nil
		}
		fmt.Printf("%s: user %s\n", args[0], c.User)
		return nil
	case len(args) == 3 && args[0] == "save":
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		c := network.Credentials{User: args[2], Password: strings.TrimRight(line, "\r\n")}
		if err := creds.Save(args[1], c); err != nil {
			return err
		}
		fmt.Printf("saved credentials for %s\n", args[1])
		return nil
	case len(args) == 2 && args[0] == "delete":
		return creds.Delete(args[1])
	}
	return fmt.Errorf("usage: auth HOST | auth save HOST USER | auth delete HOST")
}

func runPrefs(db *store.DB, args []string) error {
	op := "list"
	if len(args) > 0 {
		op = args[0]
	}
	switch {
	case op == "list" && len(args) <= 2:
		prefix := ""
		if len(args) == 2 {
			prefix = args[1]
		}
		keys, err := db.Keys(prefix)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	case op == "delete" && len(args) == 2:
		return db.Delete(args[1])
	}
	return fmt.Errorf("usage: prefs [list [PREFIX] | delete KEY]")
}

func runConfig(m *config.Manager, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: config init | set-root DIR | set-types TYPE,...")
	}
	switch {
	case args[0] == "init" && len(args) == 1:
		backup, err := m.Generate()
		if err != nil {
			return err
		}
		if backup != "" {
			fmt.Printf("previous config saved to %s\n", backup)
		}
	case args[0] == "set-root" && len(args) == 2:
		if err := m.SetMountRoot(args[1]); err != nil {
			return err
		}
	case args[0] == "set-types" && len(args) == 2:
		var types []string
		for _, st := range strings.Split(args[1], ",") {
			if st = strings.TrimSpace(st); st != "" {
				types = append(types, st)
			}
		}
		if err := m.SetServiceTypes(types); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown config command %q", strings.Join(args, " "))
	}
	fmt.Println(m.Path())
	return nil
}
