package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ShadowCodeSoftware/E-sante/internal/app"
	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/infrastructure/logger"
	"github.com/ShadowCodeSoftware/E-sante/internal/service"
	"github.com/ShadowCodeSoftware/E-sante/pkg/config"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "esante",
		Short:        "Operate the eSanté patient record store",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of a table")

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(patientCmd())
	rootCmd.AddCommand(appointmentCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// open loads the configuration and connects to the configured store.
// CLI logs go to stderr so stdout stays parseable.
func open(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logger.ParseLevel(cfg.LogLevel)}))
	return app.New(ctx, cfg, log)
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the demonstration data if the store is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if !res.Seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "store already initialized, nothing written")
				return nil
			}
			for key, n := range res.Counts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d\n", key, n)
			}
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list <collection>",
		Short:     "List a collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{domain.KeyUsers, domain.KeyPatients, domain.KeyAppointments, domain.KeyTreatments, domain.KeyMedicalRecords},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			asJSON, _ := cmd.Flags().GetBool("json")
			return printCollection(cmd.Context(), cmd.OutOrStdout(), a, args[0], asJSON)
		},
	}
}

func printCollection(ctx context.Context, out io.Writer, a *app.App, name string, asJSON bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch name {
	case domain.KeyUsers:
		users, err := a.Repos.Users.List(ctx)
		if err != nil {
			return err
		}
		profiles := make([]domain.Profile, 0, len(users))
		for _, u := range users {
			profiles = append(profiles, u.Profile())
		}
		if asJSON {
			return printJSON(out, profiles)
		}
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Email, p.Role)
		}

	case domain.KeyPatients:
		patients, err := a.Repos.Patients.List(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, patients)
		}
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tBLOOD")
		for _, p := range patients {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Email, p.Phone, p.BloodType)
		}

	case domain.KeyAppointments:
		appts, err := a.Repos.Appointments.List(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, appts)
		}
		fmt.Fprintln(w, "ID\tDATE\tTIME\tPATIENT\tTYPE\tSTATUS")
		for _, ap := range appts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", ap.ID, ap.Date, ap.Time, ap.PatientName, ap.Type, ap.Status)
		}

	case domain.KeyTreatments:
		treatments, err := a.Repos.Treatments.List(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, treatments)
		}
		fmt.Fprintln(w, "ID\tPATIENT\tMEDICATION\tDOSAGE\tSTATUS")
		for _, t := range treatments {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.PatientName, t.Medication, t.Dosage, t.Status)
		}

	case domain.KeyMedicalRecords:
		records, err := a.Repos.MedicalRecords.List(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, records)
		}
		fmt.Fprintln(w, "ID\tDATE\tPATIENT\tTYPE\tTITLE")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Date, r.PatientName, r.Type, r.Title)
		}

	default:
		return fmt.Errorf("unknown collection %q", name)
	}
	return nil
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Services.Dashboard.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Patients\t%d\n", stats.Patients)
			fmt.Fprintf(w, "Appointments\t%d\n", stats.Appointments)
			fmt.Fprintf(w, "Active treatments\t%d\n", stats.ActiveTreatments)
			fmt.Fprintf(w, "Today\t%d\n", stats.TodayAppointments)
			for _, ap := range stats.Upcoming {
				fmt.Fprintf(w, "Upcoming\t%s %s  %s (%s)\n", ap.Date, ap.Time, ap.PatientName, ap.Type)
			}
			return w.Flush()
		},
	}
}

func patientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Manage patients",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")
			dob, _ := cmd.Flags().GetString("dob")
			blood, _ := cmd.Flags().GetString("blood-type")
			allergies, _ := cmd.Flags().GetStringSlice("allergy")

			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.Services.Patients.Add(cmd.Context(), domain.Patient{
				Name:        name,
				Email:       email,
				Phone:       phone,
				DateOfBirth: dob,
				BloodType:   blood,
				Allergies:   allergies,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "patient %s added (%s)\n", p.ID, p.Name)
			return nil
		},
	}
	addCmd.Flags().String("name", "", "Full name")
	addCmd.Flags().String("email", "", "Email address")
	addCmd.Flags().String("phone", "", "Phone number")
	addCmd.Flags().String("dob", "", "Date of birth (YYYY-MM-DD)")
	addCmd.Flags().String("blood-type", "", "Blood type")
	addCmd.Flags().StringSlice("allergy", nil, "Allergy, repeatable")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("email")
	_ = addCmd.MarkFlagRequired("phone")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "search <text>",
		Short: "Find patients by name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			patients, err := a.Services.Patients.List(cmd.Context(), service.PatientFilter{Search: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), patients)
		},
	})

	return cmd
}

func appointmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointment",
		Short: "Manage appointments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <scheduled|completed|cancelled|no-show>",
		Short: "Change the status of an appointment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			appt, err := a.Services.Appointments.Transition(cmd.Context(), args[0], domain.AppointmentStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "appointment %s is now %s\n", appt.ID, appt.Status)
			return nil
		},
	})

	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	passwdCmd := &cobra.Command{
		Use:   "passwd <email>",
		Short: "Set a new password for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")

			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Services.Auth.ResetPassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
			return nil
		},
	}
	passwdCmd.Flags().String("password", "", "New password (at least 6 characters)")
	_ = passwdCmd.MarkFlagRequired("password")
	cmd.AddCommand(passwdCmd)

	return cmd
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
