package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/trip-fusion/internal/config"
	"github.com/sweeney/trip-fusion/internal/gpio"
	"github.com/sweeney/trip-fusion/internal/gpsstatus"
	"github.com/sweeney/trip-fusion/internal/location"
	"github.com/sweeney/trip-fusion/internal/mqtt"
	"github.com/sweeney/trip-fusion/internal/recorder"
	"github.com/sweeney/trip-fusion/internal/sensor"
	"github.com/sweeney/trip-fusion/internal/status"
	"github.com/sweeney/trip-fusion/internal/web"
)

const (
	clientID        = "trip-fusion"
	fixQueue        = 64
	sampleQueue     = 256
	shutdownTimeout = 5 * time.Second
)

// inputs are the channels runLoop consumes besides tick and signals.
type inputs struct {
	fixes   <-chan location.Fix
	samples <-chan sensor.Sample
	conn    <-chan bool
}

func run(cfg config.Config) error {
	topics := mqtt.NewTopics(cfg.TopicPrefix)
	publisher := mqtt.NewRealPublisher(cfg.Broker, topics, clientID)
	defer publisher.Close()

	// Fixes are only expected while the broker connection is up.
	rec, err := recorder.New(cfg.Recorder(), gpsstatus.ProviderFunc(publisher.IsConnected))
	if err != nil {
		return fmt.Errorf("create recorder: %w", err)
	}
	if err := registerSensors(rec.Sensors(), cfg, topics); err != nil {
		return err
	}

	fixes := make(chan location.Fix, fixQueue)
	samples := make(chan sensor.Sample, sampleQueue)
	conn := make(chan bool, 4)

	publisher.OnConnectionChange(func(up bool) {
		select {
		case conn <- up:
		default:
			log.Printf("mqtt: connection queue full, dropping change to %v", up)
		}
	})
	onSample := func(s sensor.Sample) {
		select {
		case samples <- s:
		default:
			log.Printf("sensor: queue full, dropping %s sample", s.Kind())
		}
	}
	err = publisher.Subscribe(func(f location.Fix) {
		select {
		case fixes <- f:
		default:
			log.Printf("mqtt: fix queue full, dropping %v", f)
		}
	}, onSample)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:          cfg.Tick.Milliseconds(),
		HeartbeatMs:     cfg.Heartbeat.Milliseconds(),
		StatsIntervalMs: cfg.StatsInterval.Milliseconds(),
		Broker:          cfg.Broker,
		TopicPrefix:     cfg.TopicPrefix,
		HTTPAddr:        cfg.HTTPAddr,
		WheelPin:        cfg.GPIO.WheelPin,
		CadencePin:      cfg.GPIO.CadencePin,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.GPIO.WheelPin != gpio.Disabled || cfg.GPIO.CadencePin != gpio.Disabled {
		reader, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.GPIO.WheelPin, cfg.GPIO.CadencePin, cfg.GPIO.Debounce)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer reader.Close()
		counters := []*gpio.RevolutionCounter{
			gpio.NewRevolutionCounter(gpio.LineWheel, cfg.GPIO.Debounce),
			gpio.NewRevolutionCounter(gpio.LineCrank, cfg.GPIO.Debounce),
		}
		g.Go(func() error {
			err := gpio.Count(ctx, reader, time.Now, onSample, counters...)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		log.Printf("gpio: counting on %s wheel=%d cadence=%d", cfg.GPIO.Chip, cfg.GPIO.WheelPin, cfg.GPIO.CadencePin)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		g.Go(func() error {
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
				shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
				defer done()
				return srv.Shutdown(shutdownCtx)
			}
		})
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: broker=%s topics=%s/# tick=%v heartbeat=%v", cfg.Broker, cfg.TopicPrefix, cfg.Tick, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	in := inputs{fixes: fixes, samples: samples, conn: conn}
	g.Go(func() error {
		defer cancel()
		return runLoop(ctx, rec, publisher, publisher, tracker, cfg.Heartbeat, cfg.StatsInterval, time.Now, in, ticker.C, sigCh)
	})
	return g.Wait()
}

// registerSensors gives every inbound sample kind a channel. Reed switches
// on GPIO take over the wheel and cadence channels.
func registerSensors(reg *sensor.Registry, cfg config.Config, topics mqtt.Topics) error {
	remote := sensor.Identity{Address: topics.InSensor, Name: "mqtt"}
	wheelID, cadenceID := remote, remote
	if cfg.GPIO.WheelPin != gpio.Disabled {
		wheelID = sensor.Identity{Address: fmt.Sprintf("%s/%d", cfg.GPIO.Chip, cfg.GPIO.WheelPin), Name: "wheel reed"}
	}
	if cfg.GPIO.CadencePin != gpio.Disabled {
		cadenceID = sensor.Identity{Address: fmt.Sprintf("%s/%d", cfg.GPIO.Chip, cfg.GPIO.CadencePin), Name: "crank reed"}
	}

	wheel, err := sensor.NewCyclingDistanceSpeed(wheelID, cfg.Sensors.WheelCircumference)
	if err != nil {
		return fmt.Errorf("create wheel sensor: %w", err)
	}
	reg.Register(sensor.NewHeartRate(remote))
	reg.Register(sensor.NewCyclingCadence(cadenceID))
	reg.Register(wheel)
	reg.Register(sensor.NewCyclingPower(remote))
	reg.Register(sensor.NewRunning(remote))
	reg.Register(sensor.NewBarometer(remote))
	return nil
}

func runLoop(ctx context.Context, rec *recorder.Recorder, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat, statsInterval time.Duration, now func() time.Time, in inputs, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	events, err := rec.Start(startTime)
	if err != nil {
		return fmt.Errorf("start recorder: %w", err)
	}
	publishGPS(publisher, rec.TrackID(), events)
	refresh(tracker, rec, mqttStatus, startTime)

	// Publish startup event with full status snapshot
	startup := mqtt.SystemEvent{
		Timestamp: startTime,
		Event:     "STARTUP",
		Retained:  true,
	}
	if tracker != nil {
		startup.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", "")
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	lastStats := startTime
	dirty := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			shutdown(rec, publisher, mqttStatus, tracker, now(), signalName(s))
			return nil

		case <-ctx.Done():
			shutdown(rec, publisher, mqttStatus, tracker, now(), "CANCELLED")
			return nil

		case f := <-in.fixes:
			t := now()
			out := rec.OnFix(f, t)
			publishGPS(publisher, rec.TrackID(), out.Events)
			if out.Point != nil {
				if err := publisher.PublishPoint(*out.Point); err != nil {
					log.Printf("point publish error: %v", err)
				}
			}
			refresh(tracker, rec, mqttStatus, t)
			dirty = false

		case s := <-in.samples:
			rec.OnSample(s)
			dirty = true

		case up := <-in.conn:
			t := now()
			if up {
				events = rec.OnProviderEnabled(t)
			} else {
				events = rec.OnProviderDisabled(t)
			}
			publishGPS(publisher, rec.TrackID(), events)
			refresh(tracker, rec, mqttStatus, t)

		case <-tick:
			t := now()
			events := rec.Tick(t)
			publishGPS(publisher, rec.TrackID(), events)

			if statsInterval > 0 && t.Sub(lastStats) >= statsInterval && rec.Recording() {
				lastStats = t
				if err := publisher.PublishStats(rec.TrackID(), rec.Statistics(), t); err != nil {
					log.Printf("stats publish error: %v", err)
				}
			}

			// Check for heartbeat
			if hbData := rec.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v gps=%s fix=%d lost=%d",
					hbData.Uptime, hbData.State, hbData.Counts.Fix, hbData.Counts.Lost)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					refresh(tracker, rec, mqttStatus, t)
					dirty = false
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			if dirty || len(events) > 0 {
				refresh(tracker, rec, mqttStatus, t)
				dirty = false
			}
		}
	}
}

func shutdown(rec *recorder.Recorder, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, t time.Time, reason string) {
	trackID := rec.TrackID()
	publishGPS(publisher, trackID, rec.Stop(t))
	if err := publisher.PublishStats(trackID, rec.Statistics(), t); err != nil {
		log.Printf("stats publish error: %v", err)
	}

	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if tracker != nil {
		refresh(tracker, rec, mqttStatus, t)
		event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func publishGPS(publisher mqtt.Publisher, trackID string, events []gpsstatus.Event) {
	for _, e := range events {
		log.Printf("gps: %s", e)
		if err := publisher.PublishGPS(trackID, e); err != nil {
			log.Printf("gps publish error: %v", err)
			// Don't crash on publish failure
		}
	}
}

// refresh updates the status tracker for HTTP and websocket consumers.
func refresh(tracker *status.Tracker, rec *recorder.Recorder, mqttStatus mqtt.ConnectionStatus, t time.Time) {
	if tracker == nil {
		return
	}
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	tracker.Update(status.EngineOf(rec, t))
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

func printState(w io.Writer, cfg config.Config) error {
	reader, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.GPIO.WheelPin, cfg.GPIO.CadencePin, 0)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	wheel, crank, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	fmt.Fprintf(w, "wheel: %s, crank: %s\n", switchString(wheel), switchString(crank))
	return nil
}

func switchString(closed bool) string {
	if closed {
		return "CLOSED"
	}
	return "OPEN"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
