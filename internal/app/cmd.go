package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	// "migrate down [n]" でn件（省略時1件）ロールバックする。
	CommandMigrate Command = "migrate"
	// CommandWaitForDB はデータベースが応答するまで待機することを示す。
	CommandWaitForDB Command = "wait-for-db"
	// CommandCreateSuperuser はスタッフ兼管理者ユーザーを作成することを示す。
	CommandCreateSuperuser Command = "createsuperuser"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ErrUnknownCommand はサポート外のサブコマンドが指定された場合のエラー。
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空の場合はCommandServeを返す。
// サポート外のコマンドはErrUnknownCommandを返し、サーバーは起動しない。
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return CommandServe, nil
	}

	switch args[0] {
	case "serve":
		return CommandServe, nil
	case "migrate":
		return CommandMigrate, nil
	case "wait-for-db":
		return CommandWaitForDB, nil
	case "createsuperuser":
		return CommandCreateSuperuser, nil
	case "healthcheck":
		return CommandHealthcheck, nil
	default:
		return "", fmt.Errorf("%w: %q (expected serve, migrate, wait-for-db, createsuperuser or healthcheck)", ErrUnknownCommand, args[0])
	}
}

// MigrateArgs はmigrateサブコマンドの引数。
type MigrateArgs struct {
	Down  bool // trueの場合はロールバックする
	Steps int  // ロールバックするマイグレーション数
}

// ParseMigrateArgs は "migrate" に続く引数を解析する。
// 引数なしは全件適用、"down" は1件ロールバック、"down n" はn件ロールバックを表す。
func ParseMigrateArgs(args []string) (MigrateArgs, error) {
	if len(args) == 0 {
		return MigrateArgs{}, nil
	}

	switch args[0] {
	case "up":
		return MigrateArgs{}, nil
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return MigrateArgs{}, fmt.Errorf("invalid rollback steps: %q", args[1])
			}
			steps = n
		}
		return MigrateArgs{Down: true, Steps: steps}, nil
	default:
		return MigrateArgs{}, fmt.Errorf("unknown migrate direction: %q", args[0])
	}
}

// SuperuserArgs はcreatesuperuserサブコマンドの引数。
type SuperuserArgs struct {
	Email    string
	Password string
}

// ErrSuperuserCredentialsRequired はcreatesuperuserにメールアドレスまたはパスワードが指定されていない場合に返される。
var ErrSuperuserCredentialsRequired = errors.New("createsuperuser requires -email and -password (or SUPERUSER_EMAIL and SUPERUSER_PASSWORD)")

// ParseSuperuserArgs は "createsuperuser" に続くフラグを解析する。
// フラグ未指定の値は環境変数 SUPERUSER_EMAIL / SUPERUSER_PASSWORD から補う。
func ParseSuperuserArgs(args []string) (SuperuserArgs, error) {
	fs := flag.NewFlagSet(string(CommandCreateSuperuser), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var parsed SuperuserArgs
	fs.StringVar(&parsed.Email, "email", os.Getenv("SUPERUSER_EMAIL"), "superuser email address")
	fs.StringVar(&parsed.Password, "password", os.Getenv("SUPERUSER_PASSWORD"), "superuser password")

	if err := fs.Parse(args); err != nil {
		return SuperuserArgs{}, fmt.Errorf("failed to parse createsuperuser flags: %w", err)
	}

	if parsed.Email == "" || parsed.Password == "" {
		return SuperuserArgs{}, ErrSuperuserCredentialsRequired
	}
	return parsed, nil
}
