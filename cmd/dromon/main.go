// dromon monitors DRO positions, either from the MQTT bus or directly
// from a device, and prints a summary on exit.
package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	fx "github.com/robotalks/dro.go/pkg/framework"
	devenv "github.com/robotalks/dro.go/pkg/l0/env"
	"github.com/robotalks/dro.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/dro.go/pkg/l1/msgs"
	"github.com/robotalks/dro.go/pkg/monitor"
)

var (
	mqttURL  = "mqtt://localhost:1883/dro/"
	direct   bool
	rate     = 100.0
	csvDir   string
	duration time.Duration
	quiet    bool
	newline  bool
	trace    bool
)

func init() {
	if val := os.Getenv("DRO_MQTT_URL"); val != "" {
		mqttURL = val
	}
	devenv.SetupFlags()
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&direct, "direct", direct, "Poll the device directly instead of listening on MQTT.")
	flag.Float64Var(&rate, "rate", rate, "Direct polling rate in Hz.")
	flag.StringVar(&csvDir, "csv", csvDir, "Directory to write a CSV position log.")
	flag.DurationVar(&duration, "duration", duration, "Stop after the duration, 0 runs until interrupted.")
	flag.BoolVar(&quiet, "quiet", quiet, "Disable the live display.")
	flag.BoolVar(&newline, "newline", newline, "Print every display update on its own line.")
	flag.BoolVar(&trace, "trace", trace, "Log every message seen on MQTT.")
}

func subscribe(loop *fx.Loop) (*mqtt.Queue, error) {
	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		return nil, err
	}
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/meta") {
			if trace {
				log.Printf("%s: %s", topic, string(payload))
			}
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		if trace {
			log.Printf("%s: [%s] %s", topic,
				reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
				msg.(msgs.SerializableMessage).Serializable().String())
		}
		switch msg.(type) {
		case *msgs.DROPositionEvent, *msgs.DROStatus:
			loop.PostMessage(msg)
		}
	}))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return q, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	start := time.Now()
	rec := monitor.NewRecorder(start)
	rec.Newline = newline
	if !quiet {
		rec.Display = os.Stdout
	}
	if csvDir != "" {
		logger, fn, err := monitor.CreateCSVLog(csvDir, start)
		if err != nil {
			log.Fatalln(err)
		}
		rec.CSV = logger
		log.Printf("logging to %s", fn)
	}
	defer rec.Close()

	loop := fx.NewLoop().Add(rec)
	loop.Interval = 10 * time.Millisecond
	if direct {
		dev := devenv.Default().MustConnect()
		defer dev.Close()
		loop.Add(monitor.NewPoller(dev, rate))
	} else {
		q, err := subscribe(loop)
		if err != nil {
			log.Fatalln(err)
		}
		defer q.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}
	err := loop.Run(ctx)
	fmt.Println()
	rec.Stats.WriteSummary(os.Stdout, time.Now())
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		log.Fatalln(err)
	}
}
