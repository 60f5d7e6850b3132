package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"techticks-chat/internal/app"
	"techticks-chat/internal/chatapi"
	"techticks-chat/internal/config"
	"techticks-chat/internal/domain"
	"techticks-chat/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewNop()
	if cfg.Debug {
		logger = zap.NewExample()
	}
	defer logger.Sync()

	a, err := app.Build(ctx, *cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	r := &repl{app: a, in: reader, out: os.Stdout}
	if err := r.run(ctx); err != nil && !errors.Is(err, io.EOF) {
		log.Fatal(err)
	}
}

type repl struct {
	app *app.App
	in  *bufio.Reader
	out io.Writer
}

func (r *repl) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) run(ctx context.Context) error {
	r.printf("===== TechTicks GPT =====\n")
	r.printWhoAmI()
	if !r.app.Session.IsAuthenticated() {
		r.printf("Usa /guest para entrar como invitado o /login <usuario> <clave>.\n")
	}
	r.printHelp()

	for {
		r.printf("Tu > ")
		line, err := r.in.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			r.send(ctx, line)
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/guest":
			r.startGuest(ctx)
		case "/login":
			if len(fields) != 3 {
				r.printf("Uso: /login <usuario> <clave>\n")
				continue
			}
			r.login(ctx, fields[1], fields[2])
		case "/register":
			if len(fields) != 4 {
				r.printf("Uso: /register <usuario> <email> <clave>\n")
				continue
			}
			r.register(ctx, fields[1], fields[2], fields[3])
		case "/logout":
			if err := r.app.Conversation.Logout(ctx); err != nil {
				r.printf("Sesion cerrada, pero no se pudo limpiar el estado: %v\n", err)
				continue
			}
			r.printf("Sesion cerrada.\n")
		case "/clear":
			r.app.Conversation.Clear()
			r.printf("Conversacion vacia.\n")
			r.printSuggestions()
		case "/whoami":
			r.printWhoAmI()
		case "/suggest":
			r.suggest(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/suggest")))
		case "/projects":
			r.projects(ctx)
		case "/help":
			r.printHelp()
		case "/quit", "/salir":
			return nil
		default:
			r.printf("Comando desconocido. /help para ver la lista.\n")
		}
	}
}

func (r *repl) send(ctx context.Context, text string) {
	if !r.app.Session.IsAuthenticated() {
		r.printf("Primero inicia sesion (/guest o /login).\n")
		return
	}
	reply, err := r.app.Conversation.Send(ctx, text)
	switch {
	case err != nil:
		r.printf("No se pudo enviar: %v\n", err)
	case reply == nil:
	default:
		r.printf("Bot > %s\n", reply.Content)
		if reply.ConfidenceScore != nil {
			r.printf("      (confianza %.0f%%)\n", *reply.ConfidenceScore*100)
		}
		for _, faq := range reply.RelatedFAQs {
			r.printf("      FAQ: %s\n", faq.Question)
		}
		r.printSuggestions()
	}
}

func (r *repl) startGuest(ctx context.Context) {
	guest, err := r.app.API.StartGuest(ctx)
	if err != nil {
		r.printf("No se pudo iniciar la sesion de invitado: %v\n", err)
		return
	}
	if err := r.app.Session.GuestMode(ctx, guest.SessionID, guest.UserID); err != nil {
		r.printf("No se pudo guardar la sesion: %v\n", err)
		return
	}
	r.printWhoAmI()
	r.printSuggestions()
}

func (r *repl) login(ctx context.Context, username, password string) {
	res, err := r.app.API.Login(ctx, username, password)
	r.adopt(ctx, res, err)
}

func (r *repl) register(ctx context.Context, username, email, password string) {
	res, err := r.app.API.Register(ctx, username, email, password)
	r.adopt(ctx, res, err)
}

func (r *repl) adopt(ctx context.Context, res domain.AuthResult, err error) {
	if err != nil {
		var se *chatapi.StatusError
		if errors.As(err, &se) {
			r.printf("Credenciales rechazadas (status %d).\n", se.StatusCode)
			return
		}
		r.printf("No se pudo contactar al servidor: %v\n", err)
		return
	}
	if err := r.app.Session.Login(ctx, res.AccessToken, res.User); err != nil {
		if errors.Is(err, service.ErrStorage) {
			r.printf("No se pudo guardar la sesion: %v\n", err)
			return
		}
		r.printf("Login invalido: %v\n", err)
		return
	}
	r.printWhoAmI()
	r.printSuggestions()
}

func (r *repl) printWhoAmI() {
	id := r.app.Session.Identity()
	if id.User == nil {
		r.printf("[sin sesion]\n")
		return
	}
	r.printf("[%s] %s - %s\n", id.Mode, id.User.DisplayName(), id.User.Subtitle())
}

func (r *repl) printSuggestions() {
	s := r.app.Conversation.Suggestions()
	if len(s) == 0 {
		return
	}
	r.printf("Sugerencias:\n")
	for _, q := range s {
		r.printf("  - %s\n", q)
	}
}

func (r *repl) suggest(ctx context.Context, query string) {
	r.app.Catalog.Load(ctx)
	faqs := r.app.Catalog.Suggest(ctx, query)
	if len(faqs) == 0 {
		r.printf("Sin coincidencias.\n")
		return
	}
	for _, f := range faqs {
		r.printf("  ? %s\n    %s\n", f.Question, f.Answer)
	}
}

func (r *repl) projects(ctx context.Context) {
	cat := r.app.Catalog.Load(ctx)
	if len(cat.Projects) == 0 && len(cat.Clients) == 0 {
		r.printf("Catalogo no disponible.\n")
		return
	}
	r.printf("Proyectos:\n")
	for _, p := range cat.Projects {
		r.printf("  * %s: %s\n", p.Title, p.Description)
	}
	r.printf("Clientes:\n")
	for _, c := range cat.Clients {
		r.printf("  * %s (%s)\n", c.Name, c.Industry)
	}
}

func (r *repl) printHelp() {
	r.printf(`Comandos:
  /guest                         entrar como invitado
  /login <usuario> <clave>       entrar con cuenta
  /register <usuario> <email> <clave>
  /logout                        cerrar sesion
  /clear                         vaciar la conversacion
  /whoami                        identidad actual
  /suggest <texto>               buscar en las FAQs
  /projects                      proyectos y clientes
  /quit                          salir
Cualquier otro texto se envia al asistente.
`)
}
