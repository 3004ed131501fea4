package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/config"
	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/hart"
	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/loader"
	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/mem"
	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/snapshot"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML hart configuration file")
	elfPath := flag.String("elf", "", "Path to a static RISC-V ELF executable")
	limit := flag.Uint64("limit", 0, "Stop after this many instructions (0 = no limit)")
	tracePath := flag.String("trace", "", "Write a per-instruction trace to this file")
	dataPath := flag.String("data-path", "", "Path to the checkpoint database directory")
	resume := flag.Uint64("resume", 0, "Resume from the checkpoint at this instruction count")
	checkpoint := flag.Bool("checkpoint", false, "Save a checkpoint when the run stops")
	list := flag.Bool("list", false, "List available checkpoints for the executable and exit")

	flag.Parse()

	if *elfPath == "" {
		log.Fatal("Error: --elf flag is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	m := mem.New(cfg.PhysAddrBits)
	prog, err := loader.Load(*elfPath, m)
	if err != nil {
		log.Fatalf("Failed to load executable: %v", err)
	}

	var store *snapshot.Store
	if *dataPath != "" {
		store, err = snapshot.Open(*dataPath)
		if err != nil {
			log.Fatalf("Failed to open checkpoint store: %v", err)
		}
		defer store.Close()
	}

	if *list {
		if store == nil {
			log.Fatal("Error: --list requires --data-path")
		}
		instrets, err := store.List(prog.Digest)
		if err != nil {
			log.Fatalf("Failed to list checkpoints: %v", err)
		}
		for _, n := range instrets {
			fmt.Println(n)
		}
		return
	}

	h := hart.New(cfg, m)
	h.SetPC(prog.Entry)

	if *resume != 0 {
		if store == nil {
			log.Fatal("Error: --resume requires --data-path")
		}
		st, err := store.Load(prog.Digest, *resume)
		if err != nil {
			log.Fatalf("Failed to load checkpoint: %v", err)
		}
		st.Apply(h)
		log.Printf("Resumed at pc=%#x instret=%d", h.PC(), h.Instret())
	}

	if *tracePath != "" {
		file, err := os.OpenFile(*tracePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			log.Fatalf("Failed to open trace file: %v", err)
		}
		defer file.Close()
		h.SetTrace(log.New(file, "", 0))
	}

	reason := h.Run(*limit)
	log.Printf("Stopped: %v pc=%#x instret=%d", reason, h.PC(), h.Instret())

	if *checkpoint {
		if store == nil {
			log.Fatal("Error: --checkpoint requires --data-path")
		}
		if err := store.Save(snapshot.Capture(h, prog.Digest)); err != nil {
			log.Fatalf("Failed to save checkpoint: %v", err)
		}
		log.Printf("Checkpoint saved at instret=%d", h.Instret())
	}

	switch reason {
	case hart.ExitSuccess:
		os.Exit(0)
	case hart.ExitFailure:
		status := int(h.Reg(10).Uint64() & 0xff)
		if status == 0 {
			status = 1
		}
		os.Exit(status)
	case hart.Exception:
		log.Printf("Exception: cause=%d tval=%#x", h.Cause(), h.Tval())
		os.Exit(1)
	default:
		os.Exit(1)
	}
}
