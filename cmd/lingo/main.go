package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pitabwire/util"

	"github.com/pitabwire/lingo"
	"github.com/pitabwire/lingo/backend/datastore"
	"github.com/pitabwire/lingo/backend/file"
	"github.com/pitabwire/lingo/translation"
	"github.com/pitabwire/lingo/version"
)

const (
	minArgsCommand = 2
	noCount        = -1
	serviceName    = "lingo"
)

var (
	errMissingFlag = errors.New("missing required flag")
	errInvalidVar  = errors.New("variables must be written as name=value")
)

func main() {
	if len(os.Args) < minArgsCommand {
		usage(os.Stdout)
		os.Exit(1)
	}

	exitOnErr(run(context.Background(), os.Args[1], os.Args[2:], os.Stdout))
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	switch command {
	case "translate":
		return cmdTranslate(ctx, args, out)
	case "list":
		return cmdList(args, out)
	case "import":
		return cmdImport(ctx, args, out)
	case "version":
		_, err := fmt.Fprintln(out, version.String())
		return err
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command: %q", command)
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "lingo <command> [args]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  translate --dir DIR --ns NAMESPACE --key KEY [--lang LANG] [--var name=value] [--count N]")
	fmt.Fprintln(out, "  list --dir DIR")
	fmt.Fprintln(out, "  import --dir DIR --dsn POSTGRES_URL")
	fmt.Fprintln(out, "  version")
}

// variables collects repeated --var name=value flags.
type variables map[string]any

func (v variables) String() string {
	pairs := make([]string, 0, len(v))
	for name, value := range v {
		pairs = append(pairs, fmt.Sprintf("%s=%v", name, value))
	}
	return strings.Join(pairs, ",")
}

func (v variables) Set(value string) error {
	name, val, ok := strings.Cut(value, "=")
	if !ok || name == "" {
		return fmt.Errorf("%w: %q", errInvalidVar, value)
	}
	v[name] = val
	return nil
}

func cmdTranslate(ctx context.Context, args []string, out io.Writer) error {
	fset := flag.NewFlagSet("translate", flag.ContinueOnError)
	dir := fset.String("dir", "localization", "translations folder")
	lang := fset.String("lang", "en", "language to render")
	namespace := fset.String("ns", "", "namespace holding the key")
	key := fset.String("key", "", "message key")
	count := fset.Int("count", noCount, "plural count, negative to skip pluralization")
	vars := variables{}
	fset.Var(vars, "var", "template variable as name=value, repeatable")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *namespace == "" || *key == "" {
		return fmt.Errorf("%w: --ns and --key", errMissingFlag)
	}

	ctx, svc := lingo.NewServiceWithContext(ctx, serviceName,
		lingo.WithVersion(version.Version),
		lingo.WithBackend(file.New(*dir)),
		lingo.WithDefaultLanguage(*lang),
	)
	defer svc.Stop(ctx)

	if err := svc.StartupErrors(); err != nil {
		return err
	}

	ref := translation.NewReference(*namespace)
	if err := <-svc.UseReference(ctx, ref); err != nil {
		return err
	}

	var rendered string
	if *count >= 0 {
		vars["Count"] = *count
		rendered = svc.TranslateWithMapAndCount(ctx, *lang, *namespace, *key, vars, *count)
	} else {
		rendered = svc.TranslateWithMap(ctx, *lang, *namespace, *key, vars)
	}

	_, err := fmt.Fprintln(out, rendered)
	return err
}

func cmdList(args []string, out io.Writer) error {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	dir := fset.String("dir", "localization", "translations folder")
	if err := fset.Parse(args); err != nil {
		return err
	}

	bundles, err := file.New(*dir).List()
	if err != nil {
		return err
	}

	for _, b := range bundles {
		if _, err = fmt.Fprintf(out, "%s\t%s\t%s\n", b.Language, b.Namespace, b.Path); err != nil {
			return err
		}
	}
	return nil
}

func cmdImport(ctx context.Context, args []string, out io.Writer) error {
	fset := flag.NewFlagSet("import", flag.ContinueOnError)
	dir := fset.String("dir", "localization", "translations folder")
	dsn := fset.String("dsn", os.Getenv("TRANSLATIONS_BACKEND_URI"), "postgres connection string")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return fmt.Errorf("%w: --dsn", errMissingFlag)
	}

	fsys := os.DirFS(*dir)
	bundles, err := file.NewFS(fsys).List()
	if err != nil {
		return err
	}

	db, err := datastore.Open(ctx, *dsn)
	if err != nil {
		return err
	}

	store := datastore.New(db)
	defer util.CloseAndLogOnError(ctx, store, "could not close translations store")

	if err = store.Migrate(ctx); err != nil {
		return err
	}

	return importBundles(ctx, fsys, bundles, store, out)
}

type bundleWriter interface {
	Save(ctx context.Context, language, namespace string, messages translation.Messages) error
}

func importBundles(ctx context.Context, fsys fs.FS, bundles []file.Bundle, store bundleWriter, out io.Writer) error {
	log := util.Log(ctx)

	for _, b := range bundles {
		data, err := fs.ReadFile(fsys, b.Path)
		if err != nil {
			return err
		}

		messages, err := file.Decode(b.Path, data)
		if err != nil {
			return err
		}

		if err = store.Save(ctx, b.Language, b.Namespace, messages); err != nil {
			return fmt.Errorf("import %s: %w", b.Path, err)
		}

		log.WithField("language", b.Language).
			WithField("namespace", b.Namespace).
			WithField("messages", len(messages)).
			Debug("imported bundle")

		if _, err = fmt.Fprintf(out, "imported %s/%s (%d messages)\n", b.Language, b.Namespace, len(messages)); err != nil {
			return err
		}
	}
	return nil
}

func exitOnErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
