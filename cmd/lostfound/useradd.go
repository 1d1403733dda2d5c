package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/poiesic/lostfound/storage"
	"github.com/urfave/cli/v2"
)

func useraddCommand() *cli.Command {
	return &cli.Command{
		Name:      "useradd",
		Usage:     "Create a user account",
		ArgsUsage: "<username> <email>",
		Action:    useraddAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password for the new account (at least 8 characters)",
				EnvVars: []string{"LOSTFOUND_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:  "admin",
				Usage: "Allow the user to delete any item",
			},
		},
	}
}

func useraddAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("expected <username> <email>")
	}
	password := c.String("password")
	if password == "" {
		return errors.New("password is required (--password or LOSTFOUND_PASSWORD)")
	}

	db, err := openDatabase(c.Context, loadedConfig(c))
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := db.CreateUser(c.Context, c.Args().Get(0), c.Args().Get(1), password, c.Bool("admin"))
	if errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("user %q already exists", c.Args().Get(0))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Created user %s (id %d)\n", user.Username, uint64(user.Id))
	return nil
}
