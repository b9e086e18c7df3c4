/*
 * cryptocore - device daemon.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/cryptocore/internal/byteport"
	"github.com/rcornwell/cryptocore/internal/command"
	"github.com/rcornwell/cryptocore/internal/iowindow"
	"github.com/rcornwell/cryptocore/internal/mainloop"
	"github.com/rcornwell/cryptocore/internal/platform"
	"github.com/rcornwell/cryptocore/internal/provision"
	"github.com/rcornwell/cryptocore/internal/transport"
	"github.com/rcornwell/cryptocore/util/logger"
)

func main() {
	optManifest := getopt.StringLong("provision", 'p', "internal/provision/testdata/default.yaml", "NV provisioning manifest")
	optNVFile := getopt.StringLong("nvfile", 'n', "", "File-backed NV persistence path (simulated if empty)")
	optI2C := getopt.StringLong("i2c", 0, ":8092", "I2C transport listen address")
	optSerial := getopt.StringLong("serial", 0, ":8093", "SimpleSerial transport listen address")
	optUART := getopt.StringLong("uart", 0, "", "Real UART device node to additionally serve over SimpleSerial framing (Linux only, e.g. /dev/ttyUSB0)")
	optBaud := getopt.StringLong("baud", 0, "115200", "UART baud rate, used only with --uart")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLogFile != "" {
		logFile, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	log := slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel}, boolPtr(false)))
	slog.SetDefault(log)

	log.Info("cryptocore starting")

	manifest, err := provision.Load(*optManifest)
	if err != nil {
		log.Error("loading provisioning manifest", "err", err)
		os.Exit(1)
	}
	store, err := manifest.Store()
	if err != nil {
		log.Error("building NV store", "err", err)
		os.Exit(1)
	}

	var plat platform.Platform
	if *optNVFile != "" {
		fb, err := platform.OpenFileBacked(*optNVFile, store, log)
		if err != nil {
			log.Error("opening file-backed NV store", "err", err)
			os.Exit(1)
		}
		defer fb.Close()
		plat = fb
	} else {
		plat = platform.NewSimulated(store, log)
	}

	uid, err := plat.ReadDeviceUID()
	if err != nil {
		log.Warn("device UID latch failed, running with 0xFF identity", "err", err)
	}

	win := &iowindow.Window{}
	copy(win.DeviceUID(), uid[:])
	copy(win.UserData(), store.Page1.UserData[:])
	var bitsInit, locksInit [4]byte
	putUint32LE(bitsInit[:], store.Page0.VolatileBitsInit)
	putUint32LE(locksInit[:], store.Page0.VolatileLocksInit)
	copy(win.VolatileBits(), bitsInit[:])
	copy(win.VolatileLocks(), locksInit[:])
	win.SetByte(iowindow.OffStat, iowindow.StatReady)

	port := byteport.New(win)
	eng := command.New(win, port, store, plat, log)
	loop := mainloop.New(port, eng, plat, log)

	ctx, cancel := context.WithCancel(context.Background())

	i2c, err := transport.NewI2C(*optI2C, port, log)
	if err != nil {
		log.Error("starting I2C transport", "err", err)
		os.Exit(1)
	}
	serial, err := transport.NewSimpleSerial(*optSerial, port, log)
	if err != nil {
		log.Error("starting SimpleSerial transport", "err", err)
		os.Exit(1)
	}

	go i2c.Serve(ctx)
	go serial.Serve(ctx)
	go loop.Run(ctx)

	log.Info("transports listening", "i2c", *optI2C, "simpleserial", *optSerial)

	var uart io.Closer
	if *optUART != "" {
		baud, err := strconv.ParseUint(*optBaud, 10, 32)
		if err != nil {
			log.Error("parsing UART baud rate", "err", err)
			os.Exit(1)
		}
		dev, err := openUART(*optUART, uint32(baud))
		if err != nil {
			log.Error("opening UART", "device", *optUART, "err", err)
			os.Exit(1)
		}
		uart = dev
		go transport.ServeDevice(dev, port, log)
		log.Info("uart serving", "device", *optUART, "baud", baud)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	cancel()
	i2c.Close()
	serial.Close()
	if uart != nil {
		uart.Close()
	}
	loop.Wait(mainloop.StopTimeout)
	log.Info("stopped")
}

func boolPtr(b bool) *bool { return &b }

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
