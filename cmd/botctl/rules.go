package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wx-home-bot/internal/app"
	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/config"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Правила ответов на точные фразы",
	}
	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesSetCmd())
	cmd.AddCommand(newRulesDeleteCmd())
	cmd.AddCommand(newRulesImportCmd())
	return cmd
}

func newRulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Вывести правила в YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(func(_ config.AppConfig, s *app.Storage) error {
				rules, err := s.Rules.Rules(cmd.Context())
				if err != nil {
					return err
				}
				out, err := encodeRules(rules)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			})
		},
	}
}

func newRulesSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <фраза> <шаблон>",
		Short: "Создать или заменить правило; {time} подставляется при ответе",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := validRule(domain.ReplyRule{Key: args[0], Template: args[1]})
			if err != nil {
				return err
			}
			return withStorage(func(_ config.AppConfig, s *app.Storage) error {
				if err := s.Rules.SetRule(cmd.Context(), rule); err != nil {
					return err
				}
				cmd.Printf("правило %q сохранено\n", rule.Key)
				return nil
			})
		},
	}
}

func newRulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <фраза>",
		Short: "Удалить правило",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(func(_ config.AppConfig, s *app.Storage) error {
				return s.Rules.DeleteRule(cmd.Context(), strings.TrimSpace(args[0]))
			})
		},
	}
}

func newRulesImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <файл.yaml>",
		Short: "Загрузить правила из YAML-списка {key, template}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			rules, err := parseRules(data)
			if err != nil {
				return err
			}
			replace, _ := cmd.Flags().GetBool("replace")
			return withStorage(func(_ config.AppConfig, s *app.Storage) error {
				if replace {
					existing, err := s.Rules.Rules(cmd.Context())
					if err != nil {
						return err
					}
					for key := range existing {
						if err := s.Rules.DeleteRule(cmd.Context(), key); err != nil {
							return err
						}
					}
				}
				for _, rule := range rules {
					if err := s.Rules.SetRule(cmd.Context(), rule); err != nil {
						return fmt.Errorf("правило %q: %w", rule.Key, err)
					}
				}
				cmd.Printf("импортировано правил: %d\n", len(rules))
				return nil
			})
		},
	}
	cmd.Flags().Bool("replace", false, "Удалить существующие правила перед импортом")
	return cmd
}

// parseRules разбирает YAML-список правил. Повторная фраза заменяет предыдущую.
func parseRules(data []byte) ([]domain.ReplyRule, error) {
	var raw []domain.ReplyRule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("разбор YAML: %w", err)
	}
	index := make(map[string]int, len(raw))
	out := make([]domain.ReplyRule, 0, len(raw))
	for i, r := range raw {
		rule, err := validRule(r)
		if err != nil {
			return nil, fmt.Errorf("правило #%d: %w", i+1, err)
		}
		if pos, ok := index[rule.Key]; ok {
			out[pos] = rule
			continue
		}
		index[rule.Key] = len(out)
		out = append(out, rule)
	}
	return out, nil
}

func validRule(r domain.ReplyRule) (domain.ReplyRule, error) {
	r.Key = strings.TrimSpace(r.Key)
	if r.Key == "" {
		return r, fmt.Errorf("пустая фраза")
	}
	if strings.TrimSpace(r.Template) == "" {
		return r, fmt.Errorf("пустой шаблон для %q", r.Key)
	}
	return r, nil
}

// encodeRules выводит правила списком, отсортированным по фразе.
func encodeRules(rules map[string]string) ([]byte, error) {
	list := make([]domain.ReplyRule, 0, len(rules))
	for key, tmpl := range rules {
		list = append(list, domain.ReplyRule{Key: key, Template: tmpl})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return yaml.Marshal(list)
}
