// Command marketcli is a CLI client for the local-marketplace catalog. It
// keeps a SQLite replica of the catalog next to its config and syncs it
// against a catalogd instance, staying usable while the authority is down.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/remote"
	"github.com/mercadolocal/catalogsync/internal/session"
	"github.com/mercadolocal/catalogsync/internal/store/sqlite"
	"github.com/mercadolocal/catalogsync/internal/sync"
)

// ---- config/token store ----

type tokenFile struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "marketcli")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "marketcli")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }
func dbPath() string    { return filepath.Join(cfgDir(), "catalog.db") }

func saveToken(tf tokenFile) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadToken() (tokenFile, error) {
	var tf tokenFile
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return tf, errors.New("not logged in (run: marketcli login)")
	}
	if err := json.Unmarshal(b, &tf); err != nil {
		return tf, err
	}
	return tf, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// app bundles everything a subcommand needs.
type app struct {
	client   *remote.Client
	db       *sqlite.DB
	products *sync.ProductCoordinator
	sellers  *sync.SellerCoordinator
	favs     *sync.FavoritesIndex
	sess     session.Session
	log      *zap.Logger
}

func newApp(server string, needAuth bool) (*app, error) {
	log, _ := zap.NewDevelopment()
	httpc := &http.Client{Timeout: 10 * time.Second}
	client := remote.New(server+"/api", httpc)

	sess := session.Anonymous
	if tf, err := loadToken(); err == nil {
		client.SetToken(tf.Token)
		sess = session.Session{UserID: tf.User.ID, Role: tf.User.Role, Token: tf.Token}
	} else if needAuth {
		return nil, err
	}

	db, err := sqlite.Open(dbPath())
	if err != nil {
		return nil, err
	}

	alloc := sync.NewIdentifierAllocator(client, log)
	products := sync.NewProductCoordinator(client, db.Products(), db.Sellers(), alloc, log)
	propagator := sync.NewConsistencyPropagator(client, db.Products(), log)
	sellers := sync.NewSellerCoordinator(client, db.Sellers(), db, propagator, log)
	favs := sync.NewFavoritesIndex(db.Favorites(), db.Products(), log)

	return &app{client: client, db: db, products: products, sellers: sellers, favs: favs, sess: sess, log: log}, nil
}

func (a *app) close() { _ = a.db.Close(); _ = a.log.Sync() }

func usage() {
	fmt.Fprintln(os.Stderr, `usage: marketcli [-server URL] <command> [flags]

commands:
  register        create an account
  login           authenticate and store the token
  sync            pull products and sellers into the local replica
  products        list local products (filters: -owner -category -city -search)
  product-add     create a product (works offline)
  product-rm      delete a product
  fav / unfav     mark or unmark a favorite (-product)
  favs            list favorite products
  promote         become a seller (-entrepreneurship -address)
  seller-edit     edit the seller profile (remote-first, no silent divergence)`)
	os.Exit(2)
}

func main() {
	server := flag.String("server", envOr("MARKET_SERVER", "http://localhost:8080"), "catalogd base URL")
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := run(ctx, *server, cmd, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(ctx context.Context, server, cmd string, args []string) error {
	switch cmd {
	case "register":
		return cmdRegister(ctx, server, args)
	case "login":
		return cmdLogin(ctx, server, args)
	case "sync":
		return withApp(server, true, func(a *app) error {
			n := a.products.PullAndMergeAll(ctx)
			sellers, err := a.sellers.SyncSellersWithAPI(ctx)
			if err != nil {
				return err
			}
			printJSON(map[string]int{"products": n, "sellers": len(sellers)})
			return nil
		})
	case "products":
		return cmdProducts(ctx, server, args)
	case "product-add":
		return cmdProductAdd(ctx, server, args)
	case "product-rm":
		return cmdProductRm(ctx, server, args)
	case "fav", "unfav":
		return cmdFav(ctx, server, cmd, args)
	case "favs":
		return withApp(server, true, func(a *app) error {
			ps, err := a.favs.FavoritesForUser(ctx, a.sess.UserID)
			if err != nil {
				return err
			}
			printJSON(ps)
			return nil
		})
	case "promote":
		return cmdPromote(ctx, server, args)
	case "seller-edit":
		return cmdSellerEdit(ctx, server, args)
	default:
		usage()
		return nil
	}
}

func withApp(server string, needAuth bool, fn func(*app) error) error {
	a, err := newApp(server, needAuth)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func cmdRegister(ctx context.Context, server string, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	last := fs.String("lastname", "", "last name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	phone := fs.String("phone", "", "phone")
	address := fs.String("address", "", "address")
	_ = fs.Parse(args)

	client := remote.New(server+"/api", nil)
	u, err := client.Register(ctx, &model.User{
		Name: *name, LastName: *last, Email: *email, Phone: *phone, Address: *address,
	}, *password)
	if err != nil {
		return err
	}
	printJSON(u)
	return nil
}

func cmdLogin(ctx context.Context, server string, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	client := remote.New(server+"/api", nil)
	resp, err := client.Login(ctx, remote.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if err := saveToken(tokenFile{Token: resp.Token, User: resp.User}); err != nil {
		return err
	}
	fmt.Println("logged in as", resp.User.Email)
	return nil
}

func cmdProducts(ctx context.Context, server string, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	owner := fs.Int64("owner", 0, "filter by owner id")
	category := fs.String("category", "", "filter by category")
	city := fs.String("city", "", "filter by location text")
	search := fs.String("search", "", "free-text search by producer name")
	_ = fs.Parse(args)

	return withApp(server, false, func(a *app) error {
		var (
			ps  []model.Product
			err error
		)
		switch {
		case *owner != 0:
			ps, err = a.products.ByOwner(ctx, *owner)
		case *category != "":
			ps, err = a.products.ByCategory(ctx, *category)
		case *city != "":
			ps, err = a.products.ByCity(ctx, *city)
		case *search != "":
			ps, err = a.products.BySellerNameSearch(ctx, *search)
		default:
			ps, err = a.products.All(ctx)
		}
		if err != nil {
			return err
		}
		printJSON(ps)
		return nil
	})
}

func cmdProductAdd(ctx context.Context, server string, args []string) error {
	fs := flag.NewFlagSet("product-add", flag.ExitOnError)
	name := fs.String("name", "", "product name")
	desc := fs.String("desc", "", "description")
	category := fs.String("category", "", "category")
	price := fs.String("price", "0", "price (decimal)")
	location := fs.String("location", "", "location text")
	image := fs.String("image", "", "image reference")
	_ = fs.Parse(args)

	pr, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("bad price: %w", err)
	}
	return withApp(server, true, func(a *app) error {
		p := &model.Product{
			Name: *name, Description: *desc, Category: *category,
			Price: pr, Location: *location,
		}
		if *image != "" {
			p.Images = []string{*image}
		}
		res, err := a.products.CreateWithSync(ctx, a.sess, p)
		if err != nil {
			return err
		}
		printJSON(res)
		if !res.Synced {
			fmt.Fprintln(os.Stderr, "note: saved locally only, run `marketcli sync` later")
		}
		return nil
	})
}

func cmdProductRm(ctx context.Context, server string, args []string) error {
	fs := flag.NewFlagSet("product-rm", flag.ExitOnError)
	id := fs.Int64("id", 0, "product id")
	_ = fs.Parse(args)

	return withApp(server, true, func(a *app) error {
		p, err := a.products.ByID(ctx, *id)
		if err != nil {
			return err
		}
		synced, err := a.products.DeleteWithSync(ctx, a.sess, p)
		if err != nil {
			return err
		}
		printJSON(map[string]any{"deleted": p.ID, "remote": synced})
		return nil
	})
}

func cmdFav(ctx context.Context, server, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	product := fs.Int64("product", 0, "product id")
	_ = fs.Parse(args)

	return withApp(server, true, func(a *app) error {
		if cmd == "fav" {
			return a.favs.Add(ctx, a.sess.UserID, *product)
		}
		return a.favs.Remove(ctx, a.sess.UserID, *product)
	})
}

func cmdPromote(ctx context.Context, server string, args []string) error {
	fs := flag.NewFlagSet("promote", flag.ExitOnError)
	entrepreneurship := fs.String("entrepreneurship", "", "business display name")
	address := fs.String("address", "", "business address")
	_ = fs.Parse(args)

	return withApp(server, true, func(a *app) error {
		// local user row must exist before promotion flips its role
		user, err := a.db.Users().Get(ctx, a.sess.UserID)
		if err != nil {
			tf, terr := loadToken()
			if terr != nil {
				return terr
			}
			user = &tf.User
			if err := a.db.Users().Upsert(ctx, user); err != nil {
				return err
			}
		}
		s, err := a.sellers.ConvertToSeller(ctx, a.sess, user, *entrepreneurship, *address)
		if err != nil {
			return err
		}
		printJSON(s)
		return nil
	})
}

func cmdSellerEdit(ctx context.Context, server string, args []string) error {
	fs := flag.NewFlagSet("seller-edit", flag.ExitOnError)
	entrepreneurship := fs.String("entrepreneurship", "", "business display name")
	address := fs.String("address", "", "business address")
	phone := fs.String("phone", "", "phone")
	_ = fs.Parse(args)

	return withApp(server, true, func(a *app) error {
		s, err := a.db.Sellers().Get(ctx, a.sess.UserID)
		if err != nil {
			return fmt.Errorf("no local seller profile, run `marketcli sync` first: %w", err)
		}
		if *entrepreneurship != "" {
			s.Entrepreneurship = *entrepreneurship
		}
		if *address != "" {
			s.Address = *address
		}
		if *phone != "" {
			s.Phone = *phone
		}
		if err := a.sellers.UpdateSellerAPI(ctx, a.sess, s); err != nil {
			return err
		}
		printJSON(s)
		return nil
	})
}
