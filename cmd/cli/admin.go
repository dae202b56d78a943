package main

import (
	"context"
	"fmt"

	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/route"
	"github.com/and161185/newsboard/internal/view"
)

// admin runs one console action. Flags are parsed before the page is
// entered so that a typo never costs a round trip.
func (c *cli) admin(ctx context.Context, cmd string, args []string) error {
	fs := newFlagSet(cmd)
	id := fs.Int64("id", 0, "record id")

	// user fields
	username := fs.String("u", "", "username")
	email := fs.String("email", "", "email")
	password := fs.String("p", "", "password")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	prog := fs.Int64("programme", 0, "programme id")
	role := fs.String("role", "", "role")

	// news fields share -programme with users
	title := fs.String("title", "", "title")
	content := fs.String("content", "", "content")
	imp := fs.String("importance", string(model.ImportanceLow), "importance")
	date := fs.String("date", "", "wished publication date")

	// programme fields
	nom := fs.String("nom", "", "programme name")
	desc := fs.String("desc", "", "programme description")

	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	set := visited(fs)
	needsID := cmd != "user-add" && cmd != "news-add" && cmd != "programme-add"
	if needsID && *id <= 0 {
		return fmt.Errorf("need -id")
	}

	a, err := enter[*view.Admin](ctx, c, route.Admin)
	if err != nil {
		return err
	}

	news := func() model.NewsInput {
		return model.NewsInput{
			Titre: *title, Contenu: *content, Programme: *prog,
			Importance: model.Importance(*imp), DateSouhaiteePublication: date,
		}
	}

	var out any
	switch cmd {
	case "user-add":
		in := model.RegisterInput{Username: *username, Email: *email, Password: *password, FirstName: *first, LastName: *last}
		if *prog > 0 {
			in.Programme = prog
		}
		out, err = a.CreateUser(ctx, in)
	case "user-edit":
		var upd model.UserUpdate
		if set["u"] {
			upd.Username = username
		}
		if set["email"] {
			upd.Email = email
		}
		if set["first"] {
			upd.FirstName = first
		}
		if set["last"] {
			upd.LastName = last
		}
		if set["programme"] {
			upd.Programme = prog
		}
		out, err = a.UpdateUser(ctx, *id, upd)
	case "assign-role":
		var msg string
		msg, err = a.AssignRole(ctx, *id, model.Role(*role))
		out = map[string]string{"success": msg}
	case "user-rm":
		err = a.DeleteUser(ctx, *id)
		out = a.Users
	case "news-add":
		out, err = a.SaveNews(ctx, 0, news())
	case "news-edit":
		out, err = a.SaveNews(ctx, *id, news())
	case "news-rm":
		err = a.DeleteNews(ctx, *id)
		out = a.News
	case "programme-add":
		out, err = a.SaveProgramme(ctx, model.Programme{Nom: *nom, Description: *desc})
	case "programme-edit":
		out, err = a.SaveProgramme(ctx, model.Programme{ID: *id, Nom: *nom, Description: *desc})
	case "programme-rm":
		err = a.DeleteProgramme(ctx, *id)
		out = a.Programmes
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	printJSON(c.out, out)
	return nil
}
