// bsptool is a CLI utility for inspecting QuakeII maps and PAK archives.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/blackbloc/internal/logger"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

var (
	flagBaseDir = flag.String("basedir", "", "Game directory to resolve map names in")
	flagVerbose = flag.Bool("v", false, "Log loader details to stderr")
	flagPaks    stringList
)

func init() {
	flag.Var(&flagPaks, "pak", "PAK archive to resolve map names in (repeatable)")
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	// Loader warnings go to stderr so they never mix with command output.
	_ = logger.InitWithFileConfig("warn", logger.FileConfig{}, true)
	if *flagVerbose {
		logger.SetLevel("debug")
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "entities", "ents":
		err = cmdEntities(args)
	case "lightmaps":
		err = cmdLightmaps(args)
	case "pak":
		err = cmdPak(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`bsptool - QuakeII map and PAK utility

Usage:
  bsptool [-v] [-basedir dir] [-pak file.pak ...] <command> [options]

Commands:
  info <map>                         Show lumps and map statistics
  entities <map>                     Print the entity lump
  lightmaps <map> <outdir>           Write lightmap atlas pages as BMP
  pak list <file.pak> [pattern]      List archive files (optional glob pattern)
  pak extract <file.pak> <path> [output] Extract file(s) to directory

A map is a file on disk or, with -basedir or -pak, a game path.

Examples:
  bsptool info maps/base1.bsp
  bsptool -basedir ~/quake2/baseq2 lightmaps maps/q2dm1.bsp ./out
  bsptool pak list pak0.pak "*.wal"
  bsptool pak extract pak0.pak "*.bsp" ./maps`)
}
