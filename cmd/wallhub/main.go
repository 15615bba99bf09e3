package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/JohnDeved/wallhub/internal/admin"
	"github.com/JohnDeved/wallhub/internal/catalog"
	"github.com/JohnDeved/wallhub/internal/client"
	"github.com/JohnDeved/wallhub/internal/config"
	"github.com/JohnDeved/wallhub/internal/downloader"
	"github.com/JohnDeved/wallhub/internal/gate"
	"github.com/JohnDeved/wallhub/internal/logging"
	"github.com/JohnDeved/wallhub/internal/model"
	"github.com/JohnDeved/wallhub/internal/notify"
	"github.com/JohnDeved/wallhub/internal/preview"
	"github.com/JohnDeved/wallhub/internal/store"
	"github.com/JohnDeved/wallhub/internal/tui"
	"github.com/JohnDeved/wallhub/internal/util"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wallhub",
		Short: "A terminal client for browsing and downloading wallpapers",
		Long: `wallhub - Browse the wallpaper catalog by category and device, preview
and download wallpapers, and manage uploads from your terminal.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv()
		},
		SilenceUsage: true,
		RunE:         runTUI,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List wallpapers in plain text",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	listCmd.Flags().String("device", "", "Only list wallpapers for this device (pc, mobile)")
	listCmd.Flags().String("category", "", "Only list wallpapers in this category")
	listCmd.Flags().Bool("json", false, "Output JSON")
	listCmd.Flags().Int("limit", 0, "Limit number of wallpapers (0 = unlimited)")

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories with per-device counts",
		Args:  cobra.NoArgs,
		RunE:  runCategories,
	}
	categoriesCmd.Flags().Bool("json", false, "Output JSON")

	downloadCmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a wallpaper by id",
		Args:  cobra.ExactArgs(1),
		RunE:  runDownload,
	}
	downloadCmd.Flags().StringP("output", "o", "", "Output directory for this download")

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Upload wallpapers or trigger bulk ingestion",
	}
	adminCmd.PersistentFlags().String("pin", "", "Admin PIN")

	uploadCmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload a wallpaper image",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpload,
	}
	uploadCmd.Flags().String("name", "", "Wallpaper name")
	uploadCmd.Flags().String("description", "", "Wallpaper description")
	uploadCmd.Flags().String("device", string(model.DevicePC), "Target device (pc, mobile)")
	uploadCmd.Flags().String("category", "", "Existing category")
	uploadCmd.Flags().String("new-category", "", "Create this category instead of using an existing one")

	bulkCmd := &cobra.Command{
		Use:   "bulk <query>",
		Short: "Ask the backend to ingest provider images for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBulk,
	}
	bulkCmd.Flags().String("device", string(model.DevicePC), "Target device (pc, mobile)")
	adminCmd.AddCommand(uploadCmd, bulkCmd)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored admin token",
	}
	tokenCmd.AddCommand(
		&cobra.Command{
			Use:   "set <token>",
			Short: "Store the admin token",
			Args:  cobra.ExactArgs(1),
			RunE:  runTokenSet,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored admin token",
			Args:  cobra.NoArgs,
			RunE:  runTokenClear,
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show whether a token is stored",
			Args:  cobra.NoArgs,
			RunE:  runTokenShow,
		},
	)

	rootCmd.AddCommand(listCmd, categoriesCmd, downloadCmd, adminCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env holds the components shared by every command.
type env struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *client.Client
	repo   *catalog.Repository
}

func newEnv(cfg *config.Config, log zerolog.Logger) *env {
	c := client.New(cfg.BaseURL, cfg.RequestsPerSecond, log)
	var opts []catalog.Option
	if cfg.Provider.Enabled() {
		p := c.Provider(cfg.Provider.URL, cfg.Provider.AccessKey)
		opts = append(opts, catalog.WithProvider(p, cfg.Provider.Query, cfg.Provider.PerPage))
	}
	return &env{
		cfg:    cfg,
		log:    log,
		client: c,
		repo:   catalog.NewRepository(c, log, opts...),
	}
}

// cliEnv loads the config for a non-interactive command, logging to stderr.
func cliEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}
	return newEnv(cfg, logging.New(cfg.LogLevel, os.Stderr)), nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !isInteractiveTerminal() {
		return runList(cmd, args)
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}
	// The screen belongs to the TUI, so logs go to a file.
	log, closer, err := logging.NewFile(cfg.LogLevel, config.LogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", err)
	} else {
		defer closer.Close()
	}
	e := newEnv(cfg, log)

	var tokens admin.TokenSource = admin.StaticToken("")
	db, err := store.OpenDB(config.DBPath())
	if err != nil {
		e.log.Warn().Err(err).Msg("credential store unavailable; uploads are sent without a token")
	} else {
		defer db.Close()
		tokens = db
	}

	notifier := &tui.Notifier{}
	deps := tui.Deps{
		Catalog: e.repo,
		Downloads: downloader.NewManager(e.client, cfg.DownloadDir,
			downloader.WithNotifier(notifier),
			downloader.WithLogger(e.log),
		),
		Admin:   admin.New(e.client, tokens, e.repo, notifier, e.log),
		Gate:    gate.FromPIN(cfg.AdminPIN),
		Preview: preview.New(),
		Origin:  e.client.BaseURL(),
		Log:     e.log,
	}
	return tui.Run(deps, notifier)
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}

	deviceRaw, _ := cmd.Flags().GetString("device")
	category, _ := cmd.Flags().GetString("category")
	jsonMode, _ := cmd.Flags().GetBool("json")
	limit, _ := cmd.Flags().GetInt("limit")

	var device model.Device
	if deviceRaw != "" {
		d, ok := model.ParseDevice(deviceRaw)
		if !ok {
			return errors.Errorf("unknown device %q (want pc or mobile)", deviceRaw)
		}
		device = d
	}

	cat, err := e.repo.Load(cmd.Context(), device)
	if err != nil {
		return err
	}
	reportFailures(cat)

	wallpapers := catalog.Selection{Category: category, Device: device}.Apply(cat.Wallpapers)
	if limit > 0 && limit < len(wallpapers) {
		wallpapers = wallpapers[:limit]
	}

	if jsonMode {
		type wallpaperOut struct {
			model.Wallpaper
			URL string `json:"url"`
		}
		out := struct {
			Device   string         `json:"device,omitempty"`
			Category string         `json:"category,omitempty"`
			Count    int            `json:"count"`
			Items    []wallpaperOut `json:"wallpapers"`
		}{
			Device:   string(device),
			Category: category,
			Count:    len(wallpapers),
			Items:    make([]wallpaperOut, 0, len(wallpapers)),
		}
		for _, w := range wallpapers {
			out.Items = append(out.Items, wallpaperOut{Wallpaper: w, URL: w.AssetURL(e.client.BaseURL())})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(wallpapers) == 0 {
		fmt.Println("No wallpapers found.")
		return nil
	}
	for _, w := range wallpapers {
		fmt.Printf("%-24s\t%-7s\t%-16s\t%s\n", w.ID, w.Device, util.TruncateText(w.Category, 16), w.Name)
	}
	fmt.Fprintf(os.Stderr, "\n%d wallpapers.\n", len(wallpapers))
	return nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	cat, err := e.repo.Load(cmd.Context(), "")
	if err != nil {
		return err
	}
	reportFailures(cat)

	type categoryOut struct {
		Name   string `json:"name"`
		PC     int    `json:"pc"`
		Mobile int    `json:"mobile"`
	}
	out := make([]categoryOut, 0, len(cat.Categories))
	for _, name := range cat.Categories {
		counts := catalog.DeviceCounts(cat.Wallpapers, name)
		out = append(out, categoryOut{
			Name:   name,
			PC:     counts[model.DevicePC],
			Mobile: counts[model.DeviceMobile],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(out) == 0 {
		fmt.Println("No categories found.")
		return nil
	}
	fmt.Printf("%-24s  %6s  %6s\n", "CATEGORY", "PC", "MOBILE")
	for _, c := range out {
		fmt.Printf("%-24s  %6d  %6d\n", util.TruncateText(c.Name, 24), c.PC, c.Mobile)
	}
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("output")
	if outDir == "" {
		outDir = e.cfg.DownloadDir
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	cat, err := e.repo.Load(ctx, "")
	if err != nil {
		return err
	}
	id := strings.TrimSpace(args[0])
	var (
		target model.Wallpaper
		found  bool
	)
	for _, w := range cat.Wallpapers {
		if w.ID == id {
			target, found = w, true
			break
		}
	}
	if !found {
		if cat.Failed(catalog.SourceWallpapers) {
			return errors.Errorf("wallpaper %q not found: the catalog could not be loaded", id)
		}
		return errors.Errorf("wallpaper %q not found", id)
	}

	fmt.Fprintf(os.Stderr, "Downloading: %s\n", target.Name)
	fmt.Fprintf(os.Stderr, "To: %s\n", outDir)

	dlm := downloader.NewManager(e.client, outDir,
		downloader.WithNotifier(&notify.Writer{W: os.Stderr}),
		downloader.WithLogger(e.log),
	)
	item, err := dlm.Download(ctx, target.AssetURL(e.client.BaseURL()), target.Name)
	if err != nil {
		return err
	}
	item.Mu.Lock()
	dest := item.DestPath
	item.Mu.Unlock()
	fmt.Printf("%s (%s)\n", dest, util.FormatBytes(item.DoneBytes.Load()))
	return nil
}

// pipeline builds the admin pipeline behind the gate. The PIN comes from
// --pin or the WALLHUB_ADMIN_PIN_INPUT environment variable.
func pipeline(cmd *cobra.Command, e *env) (*admin.Pipeline, io.Closer, error) {
	pin, _ := cmd.Flags().GetString("pin")
	if pin == "" {
		pin = os.Getenv(config.EnvPrefix + "_ADMIN_PIN_INPUT")
	}
	if err := gate.FromPIN(e.cfg.AdminPIN).Unlock(pin); err != nil {
		return nil, nil, errors.New(gate.MsgIncorrect)
	}

	db, err := store.OpenDB(config.DBPath())
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening credential store")
	}
	return admin.New(e.client, db, e.repo, &notify.Writer{W: os.Stderr}, e.log), db, nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	p, closer, err := pipeline(cmd, e)
	if err != nil {
		return err
	}
	defer closer.Close()

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	deviceRaw, _ := cmd.Flags().GetString("device")
	category, _ := cmd.Flags().GetString("category")
	newCategory, _ := cmd.Flags().GetString("new-category")
	if newCategory != "" {
		category = model.CreateNewCategory
	}
	device, _ := model.ParseDevice(deviceRaw)

	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrap(err, "opening image")
	}
	defer f.Close()

	_, err = p.SubmitManual(cmd.Context(), admin.ManualRequest{
		Name:        name,
		Description: description,
		Device:      device,
		Category:    category,
		NewCategory: newCategory,
		ImageName:   filepath.Base(args[0]),
		Image:       f,
	})
	return err
}

func runBulk(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	p, closer, err := pipeline(cmd, e)
	if err != nil {
		return err
	}
	defer closer.Close()

	deviceRaw, _ := cmd.Flags().GetString("device")
	device, _ := model.ParseDevice(deviceRaw)
	_, err = p.SubmitBulk(cmd.Context(), admin.BulkRequest{
		Query:  strings.Join(args, " "),
		Device: device,
	})
	return err
}

func withStore(fn func(ctx context.Context, db *store.DB) error) error {
	db, err := store.OpenDB(config.DBPath())
	if err != nil {
		return errors.Wrap(err, "opening credential store")
	}
	defer db.Close()
	return fn(context.Background(), db)
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, db *store.DB) error {
		if err := db.SetToken(ctx, strings.TrimSpace(args[0])); err != nil {
			return err
		}
		fmt.Println("Token stored.")
		return nil
	})
}

func runTokenClear(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, db *store.DB) error {
		if err := db.ClearToken(ctx); err != nil {
			return err
		}
		fmt.Println("Token cleared.")
		return nil
	})
}

func runTokenShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, db *store.DB) error {
		token, err := db.Token(ctx)
		if err != nil {
			return err
		}
		if token == "" {
			fmt.Println("No token stored.")
			return nil
		}
		updated, ok, err := db.TokenUpdatedAt(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Token: %s\n", maskToken(token))
		if ok {
			fmt.Printf("Updated: %s\n", util.FormatAge(updated))
		}
		fmt.Printf("Database: %s\n", config.DBPath())
		return nil
	})
}

func maskToken(t string) string {
	if len(t) <= 8 {
		return strings.Repeat("*", len(t))
	}
	return t[:4] + strings.Repeat("*", len(t)-8) + t[len(t)-4:]
}

func reportFailures(cat catalog.Catalog) {
	for _, f := range cat.Failures {
		fmt.Fprintf(os.Stderr, "Warning: %s unavailable: %v\n", f.Source, f.Err)
	}
}

func isInteractiveTerminal() bool {
	inInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	outInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (inInfo.Mode()&os.ModeCharDevice) != 0 && (outInfo.Mode()&os.ModeCharDevice) != 0
}
