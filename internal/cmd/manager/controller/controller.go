/*
Copyright © contributors to CloudNativePG, established as
CloudNativePG a Series of LF Projects, LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	"sigs.k8s.io/controller-runtime/pkg/webhook"

	// +kubebuilder:scaffold:imports
	"github.com/lily4499/gitops-argocd-gke/internal/configuration"
	rolloutcontroller "github.com/lily4499/gitops-argocd-gke/internal/controller"
	schemeBuilder "github.com/lily4499/gitops-argocd-gke/internal/scheme"
	webhookv1 "github.com/lily4499/gitops-argocd-gke/internal/webhook/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
	"github.com/lily4499/gitops-argocd-gke/pkg/versions"
)

var (
	scheme   = schemeBuilder.BuildWithAllKnownScheme()
	setupLog = log.WithName("setup")
)

const (
	// The name of the directory containing the TLS certificates
	defaultWebhookCertDir = "/run/secrets/delivery.gitops.io/webhook"

	// LeaderElectionID The controller Leader Election ID
	LeaderElectionID = "4a2f91c7.delivery.gitops.io"

	pprofReadTimeout       = 30 * time.Second
	pprofReadHeaderTimeout = 3 * time.Second
)

// leaderElectionConfiguration contains the leader parameters that will be passed to controllerruntime.Options.
type leaderElectionConfiguration struct {
	enable        bool
	leaseDuration time.Duration
	renewDeadline time.Duration
}

// managerConfiguration contains the settings passed on the command line
type managerConfiguration struct {
	metricsAddr    string
	probeAddr      string
	configMapName  string
	secretName     string
	webhookPort    int
	webhookCertDir string
	enableWebhooks bool
	pprofDebug     bool
	leaderElection leaderElectionConfiguration
}

// RunController is the main procedure of the rollout controller manager
func RunController(ctx context.Context, conf managerConfiguration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	setupLog.Info("Starting the rollout controller",
		"version", versions.Version,
		"build", versions.Info)

	if conf.pprofDebug {
		startPprofDebugServer(ctx)
	}

	// The configuration must be complete before creating the manager,
	// as the watched namespaces depend on it. A client without cache
	// is used to read it.
	restConfig := ctrl.GetConfigOrDie()
	kubeClient, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		setupLog.Error(err, "unable to create Kubernetes client")
		return err
	}

	if err := loadConfiguration(ctx, kubeClient, conf.configMapName, conf.secretName); err != nil {
		return err
	}
	if err := configuration.Current.Validate(); err != nil {
		setupLog.Error(err, "invalid controller configuration")
		return err
	}

	setupLog.Info("Controller configuration loaded", "configuration", configuration.Current)

	managerOptions := ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: conf.metricsAddr,
		},
		HealthProbeBindAddress: conf.probeAddr,
		LeaderElection:         conf.leaderElection.enable,
		LeaseDuration:          &conf.leaderElection.leaseDuration,
		RenewDeadline:          &conf.leaderElection.renewDeadline,
		LeaderElectionID:       LeaderElectionID,
		WebhookServer: webhook.NewServer(webhook.Options{
			Port:     conf.webhookPort,
			CertDir:  conf.webhookCertDir,
			CertName: "tls.crt",
			KeyName:  "tls.key",
		}),
		// LeaderElectionReleaseOnCancel defines if the leader should step down voluntarily
		// when the Manager ends. This requires the binary to immediately end when the
		// Manager is stopped, otherwise, this setting is unsafe.
		LeaderElectionReleaseOnCancel: true,
	}

	if namespaces := getNamespacesToWatch(configuration.Current); namespaces != nil {
		managerOptions.Cache = cache.Options{DefaultNamespaces: namespaces}
		setupLog.Info("Listening for changes", "watchNamespaces", configuration.Current.WatchedNamespaces())
	} else {
		setupLog.Info("Listening for changes on all namespaces")
	}

	mgr, err := ctrl.NewManager(restConfig, managerOptions)
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		return err
	}

	discoveryClient, err := utils.GetDiscoveryClient()
	if err != nil {
		return err
	}

	rolloutSupported, err := utils.RolloutExist(discoveryClient)
	if err != nil {
		setupLog.Error(err, "unable to detect the Rollout resource")
		return err
	}
	if !rolloutSupported {
		err := errors.New("the Rollout custom resource definition is not installed")
		setupLog.Error(err, "unable to start the controller")
		return err
	}

	podMonitorSupported, err := utils.PodMonitorExist(discoveryClient)
	if err != nil {
		setupLog.Error(err, "unable to detect the PodMonitor resource")
		return err
	}
	setupLog.Info("Kubernetes system metadata", "havePodMonitor", podMonitorSupported)

	if err = rolloutcontroller.NewRolloutReconciler(mgr, discoveryClient).SetupWithManager(
		ctx, mgr, configuration.Current.GetMaxConcurrentReconciles()); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Rollout")
		return err
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		return err
	}

	if conf.enableWebhooks {
		if err = webhookv1.SetupRolloutWebhookWithManager(mgr); err != nil {
			setupLog.Error(err, "unable to create webhook", "webhook", "Rollout", "version", "v1")
			return err
		}

		if err = webhookv1.SetupAnalysisTemplateWebhookWithManager(mgr); err != nil {
			setupLog.Error(err, "unable to create webhook", "webhook", "AnalysisTemplate", "version", "v1")
			return err
		}

		// The readiness of the controller depends on the webhook server
		// being able to answer the API server
		if err := mgr.AddReadyzCheck("readyz", mgr.GetWebhookServer().StartedChecker()); err != nil {
			setupLog.Error(err, "unable to set up ready check")
			return err
		}
	} else if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		return err
	}

	// +kubebuilder:scaffold:builder

	setupLog.Info("starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		return err
	}

	return nil
}

// getNamespacesToWatch gets the cache configuration restricting the watched
// namespaces. The namespace of the controller is always included, as it
// holds the configuration. A nil result means every namespace is watched.
func getNamespacesToWatch(conf *configuration.Data) map[string]cache.Config {
	namespaces := conf.WatchedNamespaces()
	if len(namespaces) == 0 {
		return nil
	}

	result := make(map[string]cache.Config, len(namespaces)+1)
	for _, namespace := range namespaces {
		result[namespace] = cache.Config{}
	}
	if conf.OperatorNamespace != "" {
		result[conf.OperatorNamespace] = cache.Config{}
	}
	return result
}

// loadConfiguration reads the configuration from the provided configmap and secret
func loadConfiguration(
	ctx context.Context,
	kubeClient client.Client,
	configMapName string,
	secretName string,
) error {
	configData := make(map[string]string)

	// First read the configmap if provided and store it in configData
	if configMapName != "" {
		configMapData, err := readConfigMap(ctx, kubeClient, configuration.Current.OperatorNamespace, configMapName)
		if err != nil {
			setupLog.Error(err, "unable to read ConfigMap",
				"namespace", configuration.Current.OperatorNamespace,
				"name", configMapName)
			return err
		}
		for k, v := range configMapData {
			configData[k] = v
		}
	}

	// Then read the secret if provided and store it in configData, overwriting configmap's values
	if secretName != "" {
		secretData, err := readSecret(ctx, kubeClient, configuration.Current.OperatorNamespace, secretName)
		if err != nil {
			setupLog.Error(err, "unable to read Secret",
				"namespace", configuration.Current.OperatorNamespace,
				"name", secretName)
			return err
		}
		for k, v := range secretData {
			configData[k] = v
		}
	}

	// Finally, read the config if it was provided
	if len(configData) > 0 {
		configuration.Current.ReadConfigMap(configData)
	}

	return nil
}

// readConfigMap reads the configMap and returns its content as map
func readConfigMap(
	ctx context.Context,
	kubeClient client.Client,
	namespace string,
	name string,
) (map[string]string, error) {
	if name == "" || namespace == "" {
		return nil, nil
	}

	setupLog.Info("Loading configuration from ConfigMap",
		"namespace", namespace,
		"name", name)

	configMap := &corev1.ConfigMap{}
	err := kubeClient.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, configMap)
	if apierrs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return configMap.Data, nil
}

// readSecret reads the secret and returns its content as map
func readSecret(
	ctx context.Context,
	kubeClient client.Client,
	namespace,
	name string,
) (map[string]string, error) {
	if name == "" || namespace == "" {
		return nil, nil
	}

	setupLog.Info("Loading configuration from Secret",
		"namespace", namespace,
		"name", name)

	secret := &corev1.Secret{}
	err := kubeClient.Get(ctx, types.NamespacedName{Name: name, Namespace: namespace}, secret)
	if apierrs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data := make(map[string]string, len(secret.Data))
	for k, v := range secret.Data {
		data[k] = string(v)
	}

	return data, nil
}

// startPprofDebugServer exposes pprof debug server if POD_DEBUG env variable is set to 1
func startPprofDebugServer(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	pprofServer := http.Server{
		Addr:              "0.0.0.0:6060",
		Handler:           mux,
		ReadTimeout:       pprofReadTimeout,
		ReadHeaderTimeout: pprofReadHeaderTimeout,
	}

	setupLog.Info("Starting pprof HTTP server", "addr", pprofServer.Addr)

	go func() {
		go func() {
			<-ctx.Done()

			setupLog.Info("shutting down pprof HTTP server")
			ctx, cancelFunc := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelFunc()

			if err := pprofServer.Shutdown(ctx); err != nil {
				setupLog.Error(err, "Failed to shutdown pprof HTTP server")
			}
		}()

		if err := pprofServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			setupLog.Error(err, "Failed to start pprof HTTP server")
		}
	}()
}

