// Command taskctl sends single tasks to a worker node and prints the reply.
//
//	taskctl --addr localhost:9103 balance 101
//	taskctl transfer 101 2601 500.00
//	taskctl raw 'TASK|T1|CONSULTAR_SALDO|101'
//	taskctl --admin localhost:9203 info
//	taskctl --admin localhost:9203 partition parte2
//
// Each invocation opens one connection, writes one line and waits for one
// line back. A worker ERROR reply exits with status 1.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli"

	"github.com/dreamware/ledgernode/internal/admin"
	"github.com/dreamware/ledgernode/internal/protocol"
)

var logFatal = log.Fatalf

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logFatal("taskctl: %v", err)
	}
}

func newApp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "taskctl"
	app.Usage = "send tasks to a ledger worker"
	app.Writer = out
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "addr, a",
			Value:  "localhost:9103",
			Usage:  "worker task `HOST:PORT`",
			EnvVar: "TASKCTL_ADDR",
		},
		cli.StringFlag{
			Name:   "admin",
			Value:  "localhost:9203",
			Usage:  "worker admin `HOST:PORT`",
			EnvVar: "TASKCTL_ADMIN",
		},
		cli.StringFlag{
			Name:  "task-id, t",
			Usage: "task `ID`, random when empty",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Value: 5 * time.Second,
			Usage: "dial and reply timeout",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "balance",
			Usage:     "query an account balance",
			ArgsUsage: "ACCOUNT",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.NewExitError("balance needs ACCOUNT", 2)
				}
				return sendTask(c, protocol.OpBalance, c.Args())
			},
		},
		{
			Name:      "transfer",
			Usage:     "move funds between two accounts",
			ArgsUsage: "ORIGIN DEST AMOUNT",
			Action: func(c *cli.Context) error {
				if c.NArg() != 3 {
					return cli.NewExitError("transfer needs ORIGIN DEST AMOUNT", 2)
				}
				return sendTask(c, protocol.OpTransfer, c.Args())
			},
		},
		{
			Name:      "raw",
			Usage:     "send one line verbatim and print the reply verbatim",
			ArgsUsage: "LINE",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.NewExitError("raw needs LINE", 2)
				}
				reply, err := roundTrip(c, c.Args().First())
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, reply)
				return nil
			},
		},
		{
			Name:  "info",
			Usage: "print the worker's admin summary",
			Action: func(c *cli.Context) error {
				var info admin.Info
				return fetchJSON(c, "/info", &info)
			},
		},
		{
			Name:      "partition",
			Usage:     "list the accounts a worker holds for one partition",
			ArgsUsage: "NAME",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.NewExitError("partition needs NAME", 2)
				}
				var view admin.PartitionView
				return fetchJSON(c, "/partitions/"+c.Args().First(), &view)
			},
		},
	}
	return app
}

// sendTask encodes one request, prints the payload of an OK reply and turns
// an ERROR reply into exit status 1.
func sendTask(c *cli.Context, op string, args []string) error {
	id := c.GlobalString("task-id")
	if id == "" {
		id = uuid.NewString()[:8]
	}
	line := protocol.EncodeRequest(protocol.Request{TaskID: id, Operation: op, Args: args})

	reply, err := roundTrip(c, line)
	if err != nil {
		return err
	}
	resp, err := protocol.DecodeResponse(reply)
	if err != nil {
		return err
	}
	if !resp.OK {
		return cli.NewExitError(resp.Payload, 1)
	}
	fmt.Fprintln(c.App.Writer, resp.Payload)
	return nil
}

func roundTrip(c *cli.Context, line string) (string, error) {
	timeout := c.GlobalDuration("timeout")
	conn, err := net.DialTimeout("tcp", c.GlobalString("addr"), timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}

	if _, err := io.WriteString(conn, line+"\n"); err != nil {
		return "", err
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return strings.TrimRight(reply, "\r\n"), nil
}

// fetchJSON decodes an admin endpoint into out and prints it indented.
func fetchJSON(c *cli.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.GlobalDuration("timeout"))
	defer cancel()
	if err := admin.GetJSON(ctx, "http://"+c.GlobalString("admin")+path, out); err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
