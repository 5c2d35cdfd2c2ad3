// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// pamauthd runs the PAM authentication plugin on the development host. It
// serves the plugin's login and user management routes over HTTPS along
// with the plugin's web UI bundle.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/homewired/pamauth/host"
	"github.com/homewired/pamauth/plugins/pam"
	"github.com/homewired/pamauth/server"
	sn "github.com/homewired/pamauth/server/sessions"
	snmemory "github.com/homewired/pamauth/server/sessions/memory"
	snmysql "github.com/homewired/pamauth/server/sessions/mysql"
	"github.com/homewired/pamauth/store"
	"github.com/homewired/pamauth/store/localdb"
	stmysql "github.com/homewired/pamauth/store/mysql"
)

func main() {
	err := _main()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func _main() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLogRotator()

	log.Infof("Version : %v", cfg.Version)
	log.Infof("Home dir: %v", cfg.HomeDir)
	log.Infof("Store   : %v", cfg.StoreBackend)

	// Setup the user record store and the sessions database
	var (
		kv   store.KV
		sndb sn.DB
		db   *sql.DB
	)
	switch cfg.StoreBackend {
	case storeBackendLevelDB:
		kv, err = localdb.New(cfg.HomeDir, cfg.DataDir)
		if err != nil {
			return err
		}
		sndb = snmemory.New(cfg.SessionMaxAge)

	case storeBackendMySQL:
		db, err = connectMySQL(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		kv, err = stmysql.New(db, nil)
		if err != nil {
			return err
		}
		sndb, err = snmysql.New(db, cfg.SessionMaxAge, nil)
		if err != nil {
			return err
		}
	}
	defer kv.Close()

	// Setup the plugin
	p, err := pam.New(host.PluginArgs{
		Settings: cfg.PluginSettings,
		DB:       kv,
	})
	if err != nil {
		return err
	}

	// Setup the server
	s, err := server.New(&server.Config{
		BuildVersion:     cfg.Version,
		HTTPSCert:        cfg.HTTPSCert,
		HTTPSKey:         cfg.HTTPSKey,
		CSRFKey:          filepath.Join(cfg.HomeDir, "csrf.key"),
		SessionKey:       filepath.Join(cfg.HomeDir, "session.key"),
		SessionMaxAge:    cfg.SessionMaxAge,
		ReadTimeout:      cfg.ReadTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		ReqBodySizeLimit: cfg.ReqBodySizeLimit,
		Listen:           cfg.Listen,
	}, sndb)
	if err != nil {
		return err
	}

	// Register the plugin's handlers and web UI with the server
	err = p.Register(s)
	if err != nil {
		return err
	}

	// Tell the server to start listening for requests
	listenC := make(chan error)
	s.ListenAndServeTLS(listenC)

	// Tell the user we are ready to go
	log.Infof("Start of day")

	// Setup OS signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case sig := <-sigs:
			log.Infof("Terminating with %v", sig)
			goto done
		case err := <-listenC:
			log.Errorf("%v", err)
			goto done
		}
	}

done:
	log.Infof("Exiting")
	s.Shutdown()
	return nil
}

// connectMySQL opens and verifies the connection to the MySQL database.
func connectMySQL(cfg *config) (*sql.DB, error) {
	var (
		connMaxLifetime = 1 * time.Minute
		maxOpenConns    = 0 // 0 is unlimited (sql package default)
		maxIdleConns    = 10

		user     = cfg.AppName
		password = cfg.DBPass
		h        = fmt.Sprintf("%v:%v@tcp(%v)/%v", user, password,
			cfg.DBHost, cfg.AppName)
	)

	log.Infof("Database: %v:[pass]@tcp(%v)/%v", user, cfg.DBHost,
		cfg.AppName)

	db, err := sql.Open("mysql", h)
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	return db, nil
}
