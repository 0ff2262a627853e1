package adapters

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"gemporter/internal/utils"
)

// awaitCallback serves redirectURL on a private mux until the OAuth provider
// calls back once, then shuts the server down. complete receives the
// callback request and finishes the token exchange.
func awaitCallback(ctx context.Context, logger *zap.Logger, platform, authURL, redirectURL string, complete func(*http.Request) error) error {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return fmt.Errorf("parse redirect url %q: %w", redirectURL, err)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return fmt.Errorf("listen on %s for the %s callback: %w", u.Host, platform, err)
	}

	done := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(u.Path, func(w http.ResponseWriter, r *http.Request) {
		err := complete(r)
		if err != nil {
			http.Error(w, "Login failed, check the terminal for details.", http.StatusForbidden)
		} else {
			fmt.Fprintf(w, "Login Completed! You can now close this window.")
		}
		select {
		case done <- err:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("oauth callback server stopped", zap.String("platform", platform), zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Please log in to %s by visiting the following page in your browser:\n%s\n", platform, authURL)
	if err := utils.OpenBrowser(authURL); err != nil {
		logger.Debug("could not open browser", zap.Error(err))
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
