package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsmaestro/maestro/internal/inventory"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Manage Ansible inventories",
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored inventories",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := inventory.NewManager(viper.GetString("inventory.dir"))
		names, err := m.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No inventories yet. Create one with 'maestro inventory create <name>'.")
			return nil
		}
		for _, name := range names {
			groups, err := m.GroupNames(name)
			if err != nil {
				return err
			}
			fmt.Printf("%s  [%s]\n", name, strings.Join(groups, ", "))
		}
		return nil
	},
}

var inventoryShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print an inventory file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := inventory.NewManager(viper.GetString("inventory.dir"))
		data, err := os.ReadFile(m.Path(args[0]))
		if err != nil {
			return fmt.Errorf("failed to read inventory %s: %w", args[0], err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var inventoryCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an inventory interactively",
	Long: `Create an inventory by answering prompts. Enter an empty group name to
finish; enter an empty host name to finish a group. Host entries accept
Ansible host vars inline, e.g. "web1 ansible_host=10.0.0.11".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := inventory.NewManager(viper.GetString("inventory.dir"))
		inv, err := promptInventory(bufio.NewReader(os.Stdin))
		if err != nil {
			return err
		}
		if err := m.Save(args[0], inv); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", m.Path(args[0]))
		return nil
	},
}

func promptInventory(reader *bufio.Reader) (inventory.Inventory, error) {
	var inv inventory.Inventory
	for {
		fmt.Print("Group name (empty to finish): ")
		groupName, err := readLine(reader)
		if err != nil {
			return inventory.Inventory{}, err
		}
		if groupName == "" {
			break
		}

		group := inventory.Group{Name: groupName}
		for {
			fmt.Printf("  Host for [%s] (empty to finish group): ", groupName)
			line, err := readLine(reader)
			if err != nil {
				return inventory.Inventory{}, err
			}
			if line == "" {
				break
			}

			fields := strings.Fields(line)
			host := inventory.Host{Name: fields[0]}
			for _, field := range fields[1:] {
				key, value, ok := strings.Cut(field, "=")
				if !ok {
					return inventory.Inventory{}, fmt.Errorf("malformed host var %q, want key=value", field)
				}
				if host.Vars == nil {
					host.Vars = make(map[string]string)
				}
				host.Vars[key] = value
			}
			group.Hosts = append(group.Hosts, host)
		}
		inv.Groups = append(inv.Groups, group)
	}

	if len(inv.Groups) == 0 {
		return inventory.Inventory{}, fmt.Errorf("no groups entered")
	}
	return inv, nil
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func init() {
	inventoryCmd.AddCommand(inventoryListCmd)
	inventoryCmd.AddCommand(inventoryShowCmd)
	inventoryCmd.AddCommand(inventoryCreateCmd)
	rootCmd.AddCommand(inventoryCmd)
}
