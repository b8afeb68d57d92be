package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/org"
	"github.com/kanisahq/kanisa/core/user"
	"github.com/kanisahq/kanisa/storage/database"
	sqlxrepos "github.com/kanisahq/kanisa/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	sdb := sqlx.NewDb(db, "postgres")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	org.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	orgRepo := sqlxrepos.NewOrgRepository(sdb)
	cli := &commandLine{
		db:       db,
		orgSvc:   org.NewService(db, orgRepo, conf),
		orgRepo:  orgRepo,
		usrRepo:  sqlxrepos.NewUserRepository(sdb),
		validate: validate,
	}
	if err := newRootCmd(cli).Execute(); err != nil {
		os.Exit(1)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
