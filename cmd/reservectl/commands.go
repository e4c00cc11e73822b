package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/noah-isme/reservation-api/internal/adminview"
	"github.com/noah-isme/reservation-api/internal/client"
	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
	"github.com/noah-isme/reservation-api/internal/reservation"
)

func submitCommand() *command {
	return &command{
		name:    "submit",
		usage:   "submit --type <유형> --name <이름> --grade <학년> --phone <연락처> --date <YYYY-MM-DD> --slot <HH:MM> [flags]",
		summary: "Submit a consultation or level-test reservation",
		flags: func(fs *pflag.FlagSet) {
			fs.String("type", "", "reservation type ("+strings.Join(models.ReservationTypes, ", ")+")")
			fs.String("name", "", "student name")
			fs.String("grade", "", "grade ("+strings.Join(models.Grades, ", ")+")")
			fs.String("school", "", "school name without the 초등학교/중학교/고등학교 suffix")
			fs.String("phone", "", "guardian phone number")
			fs.String("parent", "", "guardian name")
			fs.String("level", "", "current math level ("+strings.Join(models.MathLevels, ", ")+")")
			fs.String("score", "", "recent exam score, 0-100")
			fs.String("target", "", "learning goal ("+strings.Join(models.ExamTargets, ", ")+")")
			fs.String("date", "", "desired date (YYYY-MM-DD)")
			fs.String("slot", "", "desired time slot ("+strings.Join(models.TimeSlots, ", ")+")")
		},
		run: func(ctx context.Context, env *environment, fs *pflag.FlagSet) error {
			draft := draftFromFlags(fs)
			if err := client.NewSubmitter(env.api).Submit(ctx, draft); err != nil {
				return err
			}
			fmt.Fprintf(env.out, "예약이 접수되었습니다. %s %s %s\n", draft.StudentName(), draft.DesiredDate(), draft.TimeSlot())
			return nil
		},
	}
}

// draftFromFlags replays the flags through the form transitions in form order.
func draftFromFlags(fs *pflag.FlagSet) reservation.Draft {
	get := func(name string) string {
		v, _ := fs.GetString(name)
		return v
	}
	d := reservation.NewDraft(get("type")).
		SetStudentName(get("name")).
		SelectGrade(get("grade")).
		SetSchoolName(get("school"))
	if phone := get("phone"); phone != "" {
		d = d.InputPhone(phone)
	}
	return d.SetParentName(get("parent")).
		SelectLevel(get("level")).
		SetExamScore(get("score")).
		SelectTarget(get("target")).
		SetDesiredDate(get("date")).
		SelectTimeSlot(get("slot"))
}

func loginCommand() *command {
	return &command{
		name:    "login",
		usage:   "login [--password-file <path>]",
		summary: "Sign in to the admin console and save the token",
		flags: func(fs *pflag.FlagSet) {
			fs.String("password-file", "", "file holding the admin password, or - to prompt (default: prompt)")
		},
		run: func(ctx context.Context, env *environment, fs *pflag.FlagSet) error {
			passwordFile, _ := fs.GetString("password-file")
			password, err := readPassword(passwordFile)
			if err != nil {
				return err
			}
			res, err := env.api.Login(ctx, password)
			if err != nil {
				return err
			}
			if err := env.tokens.Save(res.AccessToken); err != nil {
				return err
			}
			fmt.Fprintf(env.errOut, "Logged in until %s\n", res.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func readPassword(passwordFile string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", passwordFile, err)
		}
		password := strings.TrimRight(string(data), "\r\n")
		if password == "" {
			return "", fmt.Errorf("file %s is empty", passwordFile)
		}
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal available for the password prompt (use --password-file)")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func logoutCommand() *command {
	return &command{
		name:    "logout",
		usage:   "logout",
		summary: "Revoke the admin session and forget the token",
		run: func(ctx context.Context, env *environment, fs *pflag.FlagSet) error {
			if env.api.Token() != "" {
				if err := env.api.Logout(ctx); err != nil {
					fmt.Fprintf(env.errOut, "warning: %v\n", err)
				}
			}
			return env.tokens.Clear()
		},
	}
}

func filterFlags(fs *pflag.FlagSet) {
	fs.String("grade", "", "only this grade")
	fs.String("status", "", "only this status ("+strings.Join(statusNames(), ", ")+")")
	fs.String("date", "", "only this desired date (YYYY-MM-DD)")
}

func filterFromFlags(fs *pflag.FlagSet) models.ReservationFilter {
	grade, _ := fs.GetString("grade")
	status, _ := fs.GetString("status")
	date, _ := fs.GetString("date")
	return models.ReservationFilter{Grade: grade, Status: models.ReservationStatus(status), DesiredDate: date}
}

func listCommand() *command {
	return &command{
		name:    "list",
		usage:   "list [--grade <학년>] [--status <상태>] [--date <YYYY-MM-DD>]",
		summary: "Show the reservation list with the status summary",
		flags:   filterFlags,
		run: func(ctx context.Context, env *environment, fs *pflag.FlagSet) error {
			triage := adminview.NewTriage(env.api)
			if err := triage.SetFilter(ctx, filterFromFlags(fs)); err != nil {
				return err
			}
			fmt.Fprintln(env.out, renderSummary(triage.Summary()))
			fmt.Fprintln(env.out)
			return renderList(env.out, triage.Rows())
		},
	}
}

func showCommand() *command {
	return &command{
		name:    "show",
		usage:   "show <id>",
		summary: "Show one reservation",
		run: func(ctx context.Context, env *environment, fs *pflag.FlagSet) error {
			detail, err := openDetail(ctx, env, fs)
			if err != nil {
				return err
			}
			return renderDetail(env.out, detail)
		},
	}
}

func statusCommand() *command {
	return &command{
		name:    "status",
		usage:   "status <id> <상태>",
		summary: "Set a reservation's status (" + strings.Join(statusNames(), ", ") + ")",
		run: func(ctx context.Context, env *environment, fs *pflag.FlagSet) error {
			if fs.NArg() != 2 {
				return fmt.Errorf("expected <id> <status>, got %d arguments", fs.NArg())
			}
			detail, err := openDetail(ctx, env, fs)
			if err != nil {
				return err
			}
			if err := detail.SelectStatus(ctx, models.ReservationStatus(fs.Arg(1))); err != nil {
				return err
			}
			fmt.Fprintf(env.out, "%s → %s\n", detail.Reservation().StudentName, statusBadge(detail.Reservation().Status))
			return nil
		},
	}
}

func memoCommand() *command {
	return &command{
		name:    "memo",
		usage:   "memo <id> (--text <메모> | --file <path> | --template | --clear)",
		summary: "Replace the admin memo",
		flags: func(fs *pflag.FlagSet) {
			fs.String("text", "", "memo text")
			fs.String("file", "", "read the memo from a file, or - for stdin")
			fs.Bool("template", false, "fill a blank memo with the consultation outline")
			fs.Bool("clear", false, "remove the memo")
		},
		run: func(ctx context.Context, env *environment, fs *pflag.FlagSet) error {
			detail, err := openDetail(ctx, env, fs)
			if err != nil {
				return err
			}
			detail.StartEditing()

			useTemplate, _ := fs.GetBool("template")
			clearMemo, _ := fs.GetBool("clear")
			text, _ := fs.GetString("text")
			file, _ := fs.GetString("file")
			switch {
			case useTemplate:
				if !detail.FillTemplate() {
					return fmt.Errorf("the outline can only be inserted into a blank memo")
				}
			case clearMemo:
				detail.EditMemo("")
			case file != "":
				data, err := readMemoFile(file)
				if err != nil {
					return err
				}
				detail.EditMemo(data)
			case fs.Changed("text"):
				detail.EditMemo(text)
			default:
				return fmt.Errorf("one of --text, --file, --template or --clear is required")
			}

			if err := detail.SaveMemo(ctx); err != nil {
				fmt.Fprintln(env.errOut, detail.Message())
				return err
			}
			fmt.Fprintln(env.out, detail.Message())
			return nil
		},
	}
}

func readMemoFile(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read memo: %w", err)
	}
	return string(data), nil
}

func exportCommand() *command {
	return &command{
		name:    "export",
		usage:   "export [--format csv|pdf] [--output <path>] [filters]",
		summary: "Download the filtered list as CSV or PDF",
		flags: func(fs *pflag.FlagSet) {
			filterFlags(fs)
			fs.String("format", string(dto.ExportFormatCSV), "csv or pdf")
			fs.StringP("output", "o", "", "output file (default: server-provided name)")
		},
		run: func(ctx context.Context, env *environment, fs *pflag.FlagSet) error {
			format, _ := fs.GetString("format")
			output, _ := fs.GetString("output")
			file, err := env.api.Export(ctx, filterFromFlags(fs), dto.ExportFormat(format))
			if err != nil {
				return err
			}
			if output == "" {
				output = file.Filename
			}
			if err := os.WriteFile(output, file.Payload, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(env.errOut, "Wrote %s (%d bytes)\n", output, len(file.Payload))
			return nil
		},
	}
}

func openDetail(ctx context.Context, env *environment, fs *pflag.FlagSet) (*adminview.Detail, error) {
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("reservation id is required")
	}
	detail := adminview.NewDetail(env.api, fs.Arg(0))
	if err := detail.Load(ctx); err != nil {
		if detail.State() == adminview.DetailNotFound {
			return nil, fmt.Errorf("예약을 찾을 수 없습니다: %s", fs.Arg(0))
		}
		return nil, err
	}
	return detail, nil
}

func statusNames() []string {
	names := make([]string, 0, len(models.ReservationStatuses))
	for _, s := range models.ReservationStatuses {
		names = append(names, string(s))
	}
	return names
}
