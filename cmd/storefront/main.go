package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"notsteam/internal/api"
	"notsteam/internal/config"
	"notsteam/internal/imaging"
	"notsteam/internal/pages"
	"notsteam/internal/payment"
	"notsteam/internal/session"
	"notsteam/internal/storage"
	"notsteam/internal/util"
	"notsteam/pkg/domain"
)

// gridViewportRows is how many grid rows fit on screen at once; artwork
// for rows within the preload margin of this window is fetched eagerly.
const gridViewportRows = 8

func main() {
	path := config.ConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	timeout, err := config.ParseHTTPTimeout(cfg.HTTPTimeout)
	if err != nil {
		log.Fatalf("failed to parse HTTP timeout: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	client := api.NewClient(cfg.APIBaseURL)
	client.SetTimeout(timeout)
	tokens, err := session.NewTokenStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to init token store: %v", err)
	}
	cache, err := storage.NewFileCache(filepath.Join(cfg.DataDir, "images"))
	if err != nil {
		log.Fatalf("failed to init image cache: %v", err)
	}

	sess := session.New(client, tokens, logger)
	var provider payment.Provider
	if cfg.PaymentProviderURL != "" {
		provider = payment.NewHTTPProvider(cfg.PaymentProviderURL, cfg.PaymentPublishableKey)
	}

	app := &storefront{
		cfg:      cfg,
		sess:     sess,
		fetcher:  imaging.NewHTTPFetcher(timeout, cache),
		origin:   imaging.OriginOf(cfg.APIBaseURL),
		home:     pages.NewHome(client, sess, logger),
		game:     pages.NewGamePage(client, sess, logger),
		checkout: pages.NewCheckout(client, sess, provider, logger),
		library:  pages.NewLibrary(client, sess),
		wishlist: pages.NewWishlist(client, sess),
		profile:  pages.NewProfilePage(client, sess),
		auth:     pages.NewAuth(sess),
		out:      os.Stdout,
	}

	ctx := context.Background()
	sess.Initialize(ctx)
	if user := sess.User(); user != nil {
		fmt.Printf("Welcome back, %s. Cart: %d item(s).\n", user.Username, len(sess.Cart()))
	}
	app.run(ctx)
}

type storefront struct {
	cfg     config.FileConfig
	sess    *session.Context
	fetcher *imaging.HTTPFetcher
	origin  string

	home     *pages.Home
	game     *pages.GamePage
	checkout *pages.Checkout
	library  *pages.Library
	wishlist *pages.Wishlist
	profile  *pages.ProfilePage
	auth     *pages.Auth

	out io.Writer

	// current grid state for scroll-driven artwork prefetch
	observer *imaging.Observer
	images   []*imaging.Image
}

func (s *storefront) run(ctx context.Context) {
	unsubscribe := s.sess.Subscribe(func(snap session.Snapshot) {
		if snap.User != nil {
			fmt.Fprintf(s.out, "[session] %s, cart %d\n", snap.User.Username, len(snap.Cart))
		} else if snap.Ready {
			fmt.Fprintln(s.out, "[session] logged out")
		}
	})
	defer unsubscribe()

	fmt.Fprintln(s.out, `NotSteam storefront. Type "help" for commands.`)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		args := strings.Fields(line)
		if args[0] == "quit" || args[0] == "exit" {
			s.teardownGrid()
			return
		}
		if err := s.dispatch(ctx, args); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *storefront) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		s.printHelp()
	case "home":
		mode := pages.SortDefault
		if len(args) > 1 {
			mode = pages.SortMode(args[1])
		}
		return s.showHome(ctx, mode)
	case "scroll":
		if len(args) < 2 {
			return fmt.Errorf("usage: scroll <row>")
		}
		row, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad row: %w", err)
		}
		if s.observer == nil {
			return fmt.Errorf("nothing to scroll; run home first")
		}
		s.observer.SetOffset(row)
	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: search <query>")
		}
		games, err := s.home.Search(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		s.printGames(games)
	case "game":
		if len(args) < 2 {
			return fmt.Errorf("usage: game <id|slug>")
		}
		return s.showGame(ctx, args[1])
	case "login":
		if len(args) < 3 {
			return fmt.Errorf("usage: login <username> <password>")
		}
		res := s.auth.Login(ctx, args[1], args[2])
		if !res.OK {
			fmt.Fprintln(s.out, res.Message)
		}
	case "register":
		if len(args) < 5 {
			return fmt.Errorf("usage: register <username> <email> <password> <confirm>")
		}
		res := s.auth.Register(ctx, api.RegisterInput{
			Username:        args[1],
			Email:           args[2],
			Password:        args[3],
			PasswordConfirm: args[4],
		})
		if !res.OK {
			fmt.Fprintln(s.out, res.Message)
			for field, msgs := range res.Fields {
				fmt.Fprintf(s.out, "  %s: %s\n", field, strings.Join(msgs, "; "))
			}
		}
	case "logout":
		s.auth.Logout(ctx)
	case "cart":
		if len(args) > 1 && args[1] == "add" {
			if len(args) < 3 {
				return fmt.Errorf("usage: cart add <id|slug>")
			}
			return s.addToCart(ctx, args[2])
		}
		s.printGames(s.sess.Cart())
	case "buy":
		if len(args) < 5 {
			return fmt.Errorf("usage: buy <card-number> <exp-month> <exp-year> <cvc>")
		}
		if s.cfg.PaymentProviderURL == "" {
			return fmt.Errorf("payments are not configured; set paymentProviderURL")
		}
		receipt, err := s.checkout.Pay(ctx, payment.Card{
			Number:   args[1],
			ExpMonth: args[2],
			ExpYear:  args[3],
			CVC:      args[4],
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "order %d placed, $%.2f charged\n", receipt.OrderID, receipt.Amount)
	case "orders":
		orders, err := s.checkout.Orders(ctx)
		if err != nil {
			return err
		}
		s.printOrders(orders)
	case "library":
		view, err := s.library.Load(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Library (%d):\n", len(view.Entries))
		s.printLibrary(view.Entries)
		if len(view.Recent) > 0 {
			fmt.Fprintln(s.out, "Recently played:")
			s.printLibrary(view.Recent)
		}
	case "wishlist":
		if len(args) > 1 && args[1] == "remove" {
			if len(args) < 3 {
				return fmt.Errorf("usage: wishlist remove <game-id>")
			}
			id, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("bad game id: %w", err)
			}
			return s.wishlist.Remove(ctx, id)
		}
		items, err := s.wishlist.Load(ctx)
		if err != nil {
			return err
		}
		games := make([]domain.Game, len(items))
		for i, item := range items {
			games[i] = item.Game
		}
		s.printGames(games)
	case "profile":
		profile, err := s.profile.Load(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s (level %d, %d xp)\n", profile.User.Username, profile.Level, profile.XP)
		if profile.StatusMessage != "" {
			fmt.Fprintf(s.out, "status: %s\n", profile.StatusMessage)
		}
	case "status":
		if len(args) < 2 {
			return fmt.Errorf("usage: status <message>")
		}
		msg := strings.Join(args[1:], " ")
		_, err := s.profile.Update(ctx, api.ProfileUpdate{StatusMessage: &msg})
		return err
	case "review":
		if len(args) < 5 {
			return fmt.Errorf("usage: review <game-id> <positive|negative> <hours> <text...>")
		}
		gameID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad game id: %w", err)
		}
		_, err = s.game.SubmitReview(ctx, api.ReviewInput{
			GameID:      gameID,
			Rating:      domain.ReviewRating(args[2]),
			HoursPlayed: args[3],
			ReviewText:  strings.Join(args[4:], " "),
		})
		return err
	default:
		return fmt.Errorf("unknown command %q; try help", args[0])
	}
	return nil
}

func (s *storefront) showHome(ctx context.Context, mode pages.SortMode) error {
	view, err := s.home.Load(ctx, mode)
	if err != nil {
		return err
	}
	if len(view.Featured) > 0 {
		fmt.Fprintln(s.out, "Featured:")
		s.printGames(view.Featured)
	}
	fmt.Fprintln(s.out, "All games:")
	s.printGames(view.Grid)
	if s.sess.User() != nil {
		fmt.Fprintf(s.out, "Wishlist: %d  Cart: %d\n", view.WishlistCount, view.CartCount)
	}
	s.mountGrid(ctx, view.Grid)
	return nil
}

// mountGrid wires one lazy image per grid row. Artwork near the top of
// the viewport downloads immediately; the rest waits for scroll.
func (s *storefront) mountGrid(ctx context.Context, games []domain.Game) {
	s.teardownGrid()
	s.observer = imaging.NewObserver(gridViewportRows, s.cfg.ImagePreloadMargin)
	s.images = make([]*imaging.Image, 0, len(games))
	for row, game := range games {
		img := imaging.NewImage(imaging.ImageConfig{
			Key:       strconv.Itoa(game.ID),
			Source:    game.Image,
			Preset:    imaging.PresetCard,
			APIOrigin: s.origin,
			Fallback:  s.cfg.FallbackImage,
			Fetcher:   s.fetcher,
			Observer:  s.observer,
		})
		img.Mount(ctx, row)
		s.images = append(s.images, img)
	}
}

func (s *storefront) teardownGrid() {
	for _, img := range s.images {
		img.Teardown()
	}
	s.images = nil
	s.observer = nil
}

func (s *storefront) showGame(ctx context.Context, slugOrID string) error {
	view, err := s.game.Load(ctx, slugOrID)
	if err != nil {
		return err
	}
	g := view.Game
	fmt.Fprintf(s.out, "%s — %s / %s (released %s)\n", g.Title, g.Developer, g.Publisher, g.ReleaseDate)
	if g.DiscountPercentage > 0 {
		fmt.Fprintf(s.out, "$%s (was $%s, -%d%%)\n", g.DiscountedPrice, g.Price, g.DiscountPercentage)
	} else {
		fmt.Fprintf(s.out, "$%s\n", g.Price)
	}
	fmt.Fprintln(s.out, g.ShortDescription)
	if view.InCart {
		fmt.Fprintln(s.out, "(in cart)")
	}
	for _, r := range view.Reviews {
		fmt.Fprintf(s.out, "  [%s] %s — %s\n", r.Rating, r.User.Username, r.ReviewText)
	}
	return nil
}

func (s *storefront) addToCart(ctx context.Context, slugOrID string) error {
	game, err := s.game.Load(ctx, slugOrID)
	if err != nil {
		return err
	}
	if err := s.game.AddToCart(ctx, game.Game); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s added to cart\n", game.Game.Title)
	return nil
}

func (s *storefront) printGames(games []domain.Game) {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, g := range games {
		price := "$" + g.DiscountedPrice
		if g.DiscountPercentage > 0 {
			price = fmt.Sprintf("$%s (-%d%%)", g.DiscountedPrice, g.DiscountPercentage)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Title, price)
	}
	w.Flush()
}

func (s *storefront) printLibrary(entries []domain.LibraryEntry) {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		last := "never"
		if e.LastPlayed != nil {
			last = e.LastPlayed.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%sh played\tlast %s\n", e.Game.ID, e.Game.Title, e.HoursPlayed, last)
	}
	w.Flush()
}

func (s *storefront) printOrders(orders []domain.Order) {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, o := range orders {
		fmt.Fprintf(w, "#%d\t%s\t$%s\t%d item(s)\t%s\n",
			o.ID, o.CreatedAt.Format("2006-01-02"), o.TotalAmount, len(o.Items), o.Status)
	}
	w.Flush()
}

func (s *storefront) printHelp() {
	fmt.Fprint(s.out, `Commands:
  home [default|price-asc|price-desc|name-asc|name-desc]
  scroll <row>                     prefetch artwork further down the grid
  search <query>
  game <id|slug>
  login <username> <password>
  register <username> <email> <password> <confirm>
  logout
  cart | cart add <id|slug>
  buy <card-number> <exp-month> <exp-year> <cvc>
  orders
  library
  wishlist | wishlist remove <game-id>
  profile | status <message>
  review <game-id> <positive|negative> <hours> <text...>
  quit
`)
}
